package toolchain

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	mu     sync.Mutex
	calls  [][]string
	result ToolResult
	err    error
	onRun  func()
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) (ToolResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()

	if r.onRun != nil {
		r.onRun()
	}

	return r.result, r.err
}

type fakePath struct {
	mu    sync.Mutex
	found map[string]string
}

func (f *fakePath) lookPath(file string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if path, ok := f.found[file]; ok {
		return path, nil
	}

	return "", fmt.Errorf("%s: not found", file)
}

func (f *fakePath) add(file, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.found[file] = path
}

func newTestProbe(installCmd []string, runner Runner) (*Probe, *fakePath) {
	paths := &fakePath{found: make(map[string]string)}
	p := NewProbe([]string{"soffice", "libreoffice"}, installCmd, runner)
	p.lookPath = paths.lookPath
	return p, paths
}

func TestProbeIsAvailable(t *testing.T) {
	p, paths := newTestProbe(nil, &scriptedRunner{})
	assert.False(t, p.IsAvailable())
	assert.Equal(t, "", p.ConverterPath())

	paths.add("libreoffice", "/usr/bin/libreoffice")
	assert.True(t, p.IsAvailable())
	assert.Equal(t, "/usr/bin/libreoffice", p.ConverterPath())

	paths.add("soffice", "/usr/bin/soffice")
	assert.Equal(t, "/usr/bin/soffice", p.ConverterPath())
}

func TestProbeVersion(t *testing.T) {
	runner := &scriptedRunner{result: ToolResult{Stdout: "LibreOffice 7.6.4.1 60(Build:1)\nextra\n"}}
	p, paths := newTestProbe(nil, runner)

	_, err := p.Version(context.Background())
	require.Error(t, err)

	paths.add("soffice", "/usr/bin/soffice")
	version, err := p.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "LibreOffice 7.6.4.1 60(Build:1)", version)
	assert.Equal(t, []string{"/usr/bin/soffice", "--version"}, runner.calls[0])
}

func TestProbeInstallSucceeds(t *testing.T) {
	runner := &scriptedRunner{}
	p, paths := newTestProbe([]string{"apt-get", "install", "-y", "libreoffice"}, runner)
	runner.onRun = func() { paths.add("soffice", "/usr/bin/soffice") }

	require.True(t, p.Install(context.Background()))
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"apt-get", "install", "-y", "libreoffice"}, runner.calls[0])
}

func TestProbeInstallRunsOnce(t *testing.T) {
	runner := &scriptedRunner{err: fmt.Errorf("exit status 100")}
	p, _ := newTestProbe([]string{"apt-get", "install", "-y", "libreoffice"}, runner)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.False(t, p.Install(context.Background()))
		}()
	}
	wg.Wait()

	assert.Len(t, runner.calls, 1)
}

func TestProbeInstallCommandSucceedsButConverterMissing(t *testing.T) {
	runner := &scriptedRunner{}
	p, _ := newTestProbe([]string{"true"}, runner)

	assert.False(t, p.Install(context.Background()))
}

func TestProbeInstallDisabled(t *testing.T) {
	runner := &scriptedRunner{}
	p, _ := newTestProbe(nil, runner)

	assert.False(t, p.Install(context.Background()))
	assert.Empty(t, runner.calls)
}
