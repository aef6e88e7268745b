package config

import (
	"os"

	"github.com/subosito/gotenv"
)

// DotenvConfig loads a .env file into the process environment and reads keys from there.
// Variables already set in the environment are not overridden by the file.
type DotenvConfig struct {
	keys
	DotenvPath string
}

func NewDotenvConfig(path string) *DotenvConfig {
	return &DotenvConfig{keys: keys{lookup: os.Getenv}, DotenvPath: path}
}

func (c *DotenvConfig) LoadFromPath(path string) error {
	c.DotenvPath = path
	return c.Load()
}

// Load with no path configured only uses the environment.
func (c *DotenvConfig) Load() error {
	if c.lookup == nil {
		c.lookup = os.Getenv
	}

	if c.DotenvPath == "" {
		return nil
	}

	return gotenv.Load(c.DotenvPath)
}
