package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Missing(t *testing.T) {
	config := NewEmptyConfig()
	assert.Equal(t, 42, config.OptionalInt("missing", 42))
	assert.Equal(t, true, config.OptionalBool("missing", true))
	assert.Equal(t, "def", config.OptionalString("missing", "def"))
	assert.Equal(t, time.Second, config.OptionalDuration("missing", time.Second))
}

func TestConfig_Present(t *testing.T) {
	config := NewConfig(map[string]interface{}{
		"int":    7,
		"bool":   true,
		"string": "val",
		"dur":    250})

	assert.Equal(t, 7, config.OptionalInt("int", 0))
	assert.Equal(t, true, config.OptionalBool("bool", false))
	assert.Equal(t, "val", config.OptionalString("string", ""))
	assert.Equal(t, 250*time.Millisecond, config.OptionalDuration("dur", 0))
}

func TestConfig_ParseYaml(t *testing.T) {
	raw := []byte("seglog.log.level: 2\nseglog.client.create.timeout: 100\nseglog.debug: true\n")

	config, err := ParseYamlConfig(raw)
	assert.Nil(t, err)
	assert.Equal(t, 2, config.OptionalInt("seglog.log.level", 0))
	assert.Equal(t, 100*time.Millisecond, config.OptionalDuration("seglog.client.create.timeout", 0))
	assert.Equal(t, true, config.OptionalBool("seglog.debug", false))
}

func TestConfig_ParseYaml_Invalid(t *testing.T) {
	_, err := ParseYamlConfig([]byte("not: [valid"))
	assert.NotNil(t, err)
}
