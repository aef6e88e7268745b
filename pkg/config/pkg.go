package config

import (
	"fmt"
	"os"

	"github.com/apex/log"
)

var configer Configer = NewDotenvConfig("")

func SetConfig(c Configer) {
	configer = c
}

func GetConfig() Configer {
	return configer
}

func LoadFromPath(path string) error {
	return configer.LoadFromPath(path)
}

func Load() error {
	return configer.Load()
}

func GetKey(key string) string {
	return configer.GetKey(key)
}

func MustGetKey(key string) string {
	return configer.MustGetKey(key)
}

func GetKeyWithDefault(key, defaultValue string) string {
	return configer.GetKeyWithDefault(key, defaultValue)
}

func GetIntKey(key string) int {
	return configer.GetIntKey(key)
}

func MustGetIntKey(key string) int {
	return configer.MustGetIntKey(key)
}

func GetIntKeyWithDefault(key string, defaultValue int) int {
	return configer.GetIntKeyWithDefault(key, defaultValue)
}

// LoadConfiger picks the configuration source for a daemon. A configPath selects a viper file;
// otherwise the dotenv file named by MC_DOTENV_PATH is used; with neither only the environment
// is read. The chosen Configer also becomes the package default.
func LoadConfiger(configPath string) (Configer, error) {
	var c Configer
	switch {
	case configPath != "":
		vc := NewViperConfig()
		if err := vc.LoadFromPath(configPath); err != nil {
			return nil, fmt.Errorf("unable to load config file %s: %w", configPath, err)
		}
		c = vc

	default:
		dc := NewDotenvConfig(os.Getenv("MC_DOTENV_PATH"))
		if err := dc.Load(); err != nil {
			return nil, fmt.Errorf("unable to load dotenv file %s: %w", dc.DotenvPath, err)
		}
		c = dc
	}

	SetConfig(c)
	return c, nil
}

// MustLoadSettings loads the configuration and settings, exiting on failure.
func MustLoadSettings(configPath string) *Settings {
	c, err := LoadConfiger(configPath)
	if err != nil {
		log.Fatalf("%s", err)
	}

	s, err := LoadSettings(c)
	if err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}

	return s
}
