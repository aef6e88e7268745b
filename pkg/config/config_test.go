package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings(NewMapConfig(map[string]string{}))
	require.NoError(t, err)

	home, err := homedir.Dir()
	require.NoError(t, err)

	assert.Equal(t, 1360, s.Port)
	assert.Equal(t, filepath.Join(home, ".mcslides"), s.DataDir)
	assert.Equal(t, filepath.Join(home, ".mcslides", "slides"), s.SlidesDir)
	assert.Equal(t, []string{"soffice", "libreoffice"}, s.Converters)
	assert.Equal(t, []string{"apt-get", "install", "-y", "libreoffice-impress", "poppler-utils"}, s.InstallCmd)
	assert.Equal(t, 120*time.Second, s.ToolTimeout)
	assert.Equal(t, int64(50<<20), s.MaxUploadBytes)
	assert.Equal(t, 23, s.DirectPadCount)
	assert.Equal(t, 23, s.FallbackCount)
	assert.Equal(t, 5, s.MissingToolchainCount)
	assert.Equal(t, "/static/slides", s.StaticPrefix)
	assert.Len(t, s.Dirs(), 4)
}

func TestLoadSettingsOverrides(t *testing.T) {
	dataDir := t.TempDir()
	s, err := LoadSettings(NewMapConfig(map[string]string{
		PortKey:          "9000",
		DataDirKey:       dataDir,
		ConvertersKey:    " libreoffice , ,soffice7 ",
		InstallCmdKey:    "apt-get install -y libreoffice-impress",
		ToolTimeoutKey:   "5",
		StaticPrefixKey:  "slides/",
		MaxUploadMBKey:   "2",
		PageWorkersKey:   "not-a-number",
		FallbackCountKey: "10",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, s.Port)
	assert.Equal(t, filepath.Join(dataDir, "work"), s.WorkDir)
	assert.Equal(t, []string{"libreoffice", "soffice7"}, s.Converters)
	assert.Equal(t, []string{"apt-get", "install", "-y", "libreoffice-impress"}, s.InstallCmd)
	assert.Equal(t, 5*time.Second, s.ToolTimeout)
	assert.Equal(t, "/slides", s.StaticPrefix)
	assert.Equal(t, int64(2<<20), s.MaxUploadBytes)
	assert.Equal(t, 4, s.PageWorkers)
	assert.Equal(t, 10, s.FallbackCount)

	s, err = LoadSettings(NewMapConfig(map[string]string{InstallCmdKey: "None"}))
	require.NoError(t, err)
	assert.Empty(t, s.InstallCmd)
}

func TestLoadSettingsRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"port":       {PortKey: "70000"},
		"converters": {ConvertersKey: " , "},
		"timeout":    {ToolTimeoutKey: "0"},
		"prefix":     {StaticPrefixKey: "/"},
	}

	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSettings(NewMapConfig(entries))
			assert.Error(t, err)
		})
	}
}

func TestDotenvConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MCSLIDES_TEST_DOTENV_PORT=4242\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("MCSLIDES_TEST_DOTENV_PORT") })

	c := NewDotenvConfig("")
	require.NoError(t, c.Load())
	require.NoError(t, c.LoadFromPath(path))

	assert.Equal(t, 4242, c.GetIntKey("MCSLIDES_TEST_DOTENV_PORT"))
	assert.Equal(t, "fallback", c.GetKeyWithDefault("MCSLIDES_TEST_DOTENV_MISSING", "fallback"))

	assert.Error(t, NewDotenvConfig(filepath.Join(t.TempDir(), "missing.env")).Load())
}

func TestViperConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcslides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("MCSLIDES_PORT: 8123\nmcslides_render_dpi: 96\n"), 0644))

	c := NewViperConfig()
	require.NoError(t, c.Load())
	require.NoError(t, c.LoadFromPath(path))

	assert.Equal(t, 8123, c.GetIntKey(PortKey))
	assert.Equal(t, 96, c.GetIntKeyWithDefault(RenderDPIKey, 150))

	t.Setenv(PortKey, "9999")
	assert.Equal(t, 9999, c.GetIntKey(PortKey))

	s, err := LoadSettings(c)
	require.NoError(t, err)
	assert.Equal(t, 9999, s.Port)
	assert.Equal(t, 96, s.RenderDPI)
}

func TestMapConfig(t *testing.T) {
	c := NewMapConfig(map[string]string{"A": "1"})
	assert.Equal(t, 1, c.MustGetIntKey("A"))
	assert.Equal(t, 0, c.GetIntKey("B"))

	c.Set("B", "two")
	assert.Equal(t, "two", c.MustGetKey("B"))
	assert.Equal(t, 7, c.GetIntKeyWithDefault("B", 7))
	assert.Error(t, c.LoadFromPath("anything"))
}

func TestLoadConfiger(t *testing.T) {
	previous := GetConfig()
	t.Cleanup(func() { SetConfig(previous) })

	path := filepath.Join(t.TempDir(), "mcslides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("MCSLIDES_RENDER_DPI: 72\n"), 0644))

	c, err := LoadConfiger(path)
	require.NoError(t, err)
	assert.IsType(t, &ViperConfig{}, c)
	assert.Equal(t, 72, GetIntKey(RenderDPIKey))

	_, err = LoadConfiger(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("MC_DOTENV_PATH", "")
	c, err = LoadConfiger("")
	require.NoError(t, err)
	assert.IsType(t, &DotenvConfig{}, c)
}
