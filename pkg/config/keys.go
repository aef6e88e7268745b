package config

import (
	"strconv"

	"github.com/apex/log"
)

// keys derives the Configer lookups from a single raw lookup. Empty values count as missing.
type keys struct {
	lookup func(key string) string
}

func (k keys) GetKey(key string) string {
	return k.lookup(key)
}

func (k keys) MustGetKey(key string) string {
	val := k.lookup(key)
	if val == "" {
		log.Fatalf("No such required config key: '%s'", key)
	}

	return val
}

func (k keys) GetKeyWithDefault(key, defaultValue string) string {
	val := k.lookup(key)
	if val == "" {
		return defaultValue
	}

	return val
}

func (k keys) GetIntKey(key string) int {
	return k.GetIntKeyWithDefault(key, 0)
}

func (k keys) MustGetIntKey(key string) int {
	intVal, err := strconv.Atoi(k.lookup(key))
	if err != nil {
		log.Fatalf("Required config key either doesn't exist or isn't an int: '%s': %s", key, err)
	}

	return intVal
}

func (k keys) GetIntKeyWithDefault(key string, defaultValue int) int {
	intVal, err := strconv.Atoi(k.lookup(key))
	if err != nil {
		return defaultValue
	}

	return intVal
}
