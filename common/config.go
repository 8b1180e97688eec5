package common

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// The goal of this package is to move configuration to a mostly runtime
// consideration.  Components declare their tunables as string keys with
// defaults and read them lazily.  Misconfigured values terminate the
// program as soon as possible.

// In order to support a more robust configuration system, some config
// values will be encoded as different types than what is returned.
// For example, durations will not be stored in explicit time.Duration
// format, but instead will be stored as a normal integer (type: int)
// and interpreted as milliseconds.
type ConfigType string

const (
	Bool     = "bool"
	Int      = "int"
	String   = "string"
	Duration = "int(milliseconds)"
)

type ConfigMissingError struct {
	key string
}

func (c ConfigMissingError) Error() string {
	return fmt.Sprintf("Config is missing key [%s]", c.key)
}

type ConfigParsingError struct {
	expected ConfigType
	key      string
	val      interface{}
}

func (c ConfigParsingError) Error() string {
	return fmt.Sprintf("Error parsing config key [%s].  Expected type [%s], which can't be converted from [%v]", c.key, c.expected, c.val)
}

type Config interface {
	OptionalInt(key string, def int) int
	OptionalBool(key string, def bool) bool
	OptionalString(key string, def string) string
	OptionalDuration(key string, def time.Duration) time.Duration
}

func NewEmptyConfig() Config {
	return NewConfig(nil)
}

func NewConfig(internal map[string]interface{}) Config {
	if internal == nil {
		internal = make(map[string]interface{})
	}

	return &config{internal}
}

// Parses a flat yaml document (key: value) into a config.  Durations
// remain integers interpreted as milliseconds.
func ParseYamlConfig(raw []byte) (Config, error) {
	internal := make(map[string]interface{})
	if err := yaml.Unmarshal(raw, &internal); err != nil {
		return nil, errors.Wrap(err, "Error parsing yaml config")
	}

	return NewConfig(internal), nil
}

type config struct {
	internal map[string]interface{}
}

func (c *config) OptionalInt(key string, def int) int {
	val, err := readInt(c.internal, key)
	if err == nil {
		return val
	}

	switch err.(type) {
	case ConfigMissingError:
		return def
	}

	panic(err)
}

func (c *config) OptionalBool(key string, def bool) bool {
	val, err := readBool(c.internal, key)
	if err == nil {
		return val
	}

	switch err.(type) {
	case ConfigMissingError:
		return def
	}

	panic(err)
}

func (c *config) OptionalString(key string, def string) string {
	val, err := readString(c.internal, key)
	if err == nil {
		return val
	}

	switch err.(type) {
	case ConfigMissingError:
		return def
	}

	panic(err)
}

func (c *config) OptionalDuration(key string, def time.Duration) time.Duration {
	val, err := readDuration(c.internal, key)
	if err == nil {
		return val
	}

	switch err.(type) {
	case ConfigMissingError:
		return def
	}

	panic(err)
}

func readInt(m map[string]interface{}, key string) (int, error) {
	val, ok := m[key]
	if !ok {
		return 0, ConfigMissingError{key}
	}

	ret, ok := val.(int)
	if !ok {
		return 0, ConfigParsingError{Int, key, val}
	}

	return ret, nil
}

func readBool(m map[string]interface{}, key string) (bool, error) {
	val, ok := m[key]
	if !ok {
		return false, ConfigMissingError{key}
	}

	ret, ok := val.(bool)
	if !ok {
		return false, ConfigParsingError{Bool, key, val}
	}

	return ret, nil
}

func readString(m map[string]interface{}, key string) (string, error) {
	val, ok := m[key]
	if !ok {
		return "", ConfigMissingError{key}
	}

	ret, ok := val.(string)
	if !ok {
		return "", ConfigParsingError{String, key, val}
	}

	return ret, nil
}

func readDuration(m map[string]interface{}, key string) (time.Duration, error) {
	val, ok := m[key]
	if !ok {
		return 0, ConfigMissingError{key}
	}

	ret, ok := val.(int)
	if !ok {
		return 0, ConfigParsingError{Duration, key, val}
	}

	return time.Duration(ret) * time.Millisecond, nil
}
