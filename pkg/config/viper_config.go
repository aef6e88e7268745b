package config

import (
	"github.com/spf13/viper"
)

// ViperConfig reads keys from a YAML, TOML or JSON file. Environment variables with the same
// name override the file, so MCSLIDES_PORT=9000 wins over a port in the file.
type ViperConfig struct {
	keys
	v *viper.Viper
}

func NewViperConfig() *ViperConfig {
	c := &ViperConfig{v: viper.New()}
	c.v.AutomaticEnv()
	c.keys = keys{lookup: c.get}
	return c
}

func (c *ViperConfig) LoadFromPath(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *ViperConfig) Load() error {
	if c.v.ConfigFileUsed() == "" {
		return nil
	}

	return c.v.ReadInConfig()
}

// Viper keys are case insensitive, so MCSLIDES_PORT and mcslides_port in a file are the same key.
func (c *ViperConfig) get(key string) string {
	return c.v.GetString(key)
}
