package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/materials-commons/mcslides/pkg/clog"
)

// Probe finds the document converter and can try to install it. The install command is only
// ever run once per process.
type Probe struct {
	candidates []string
	installCmd []string
	runner     Runner
	lookPath   func(file string) (string, error)

	mu               sync.Mutex
	installAttempted bool
}

// NewProbe checks candidates in order, for example "soffice" then "libreoffice". An empty
// installCmd disables installation.
func NewProbe(candidates []string, installCmd []string, runner Runner) *Probe {
	return &Probe{
		candidates: candidates,
		installCmd: installCmd,
		runner:     runner,
		lookPath:   exec.LookPath,
	}
}

// ConverterPath returns the first candidate found on PATH, or "" when none is.
func (p *Probe) ConverterPath() string {
	for _, candidate := range p.candidates {
		if path, err := p.lookPath(candidate); err == nil {
			return path
		}
	}

	return ""
}

func (p *Probe) IsAvailable() bool {
	return p.ConverterPath() != ""
}

// Version runs "<converter> --version" and returns the first line of output.
func (p *Probe) Version(ctx context.Context) (string, error) {
	path := p.ConverterPath()
	if path == "" {
		return "", fmt.Errorf("no converter found (looked for %s)", strings.Join(p.candidates, ", "))
	}

	result, err := p.runner.Run(ctx, path, "--version")
	if err != nil {
		return "", err
	}

	line, _, _ := strings.Cut(strings.TrimSpace(result.Stdout), "\n")
	return strings.TrimSpace(line), nil
}

// Install runs the install command if it hasn't been tried yet, then reports whether the
// converter is now available. A failed install is not retried.
func (p *Probe) Install(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.installAttempted {
		return p.IsAvailable()
	}
	p.installAttempted = true

	if len(p.installCmd) == 0 {
		clog.Toolchain().Warn("Converter missing and no install command configured")
		return false
	}

	clog.Toolchain().WithField("cmd", strings.Join(p.installCmd, " ")).Info("Installing converter")
	result, err := p.runner.Run(ctx, p.installCmd[0], p.installCmd[1:]...)
	if err != nil {
		clog.Toolchain().WithField("output", result.Output()).Errorf("Converter install failed: %s", err)
		return false
	}

	if !p.IsAvailable() {
		clog.Toolchain().Error("Install command finished but converter still isn't on PATH")
		return false
	}

	return true
}

// LogStatus reports converter availability and version. Meant to run in its own goroutine
// at startup.
func (p *Probe) LogStatus(ctx context.Context) {
	if !p.IsAvailable() {
		clog.Toolchain().Warnf("No converter found (looked for %s); conversions will produce placeholders until it is installed",
			strings.Join(p.candidates, ", "))
		return
	}

	version, err := p.Version(ctx)
	if err != nil {
		clog.Toolchain().Warnf("Converter found at %s but version check failed: %s", p.ConverterPath(), err)
		return
	}

	clog.Toolchain().WithField("path", p.ConverterPath()).Infof("Converter available: %s", version)
}
