package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.ServerBaseURL, "http://localhost:8080")
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"client", "-a", "http://example.com:9090"}

	c := LoadConfig()

	require.NotNil(t, c)
	assert.Equal(t, c.ServerBaseURL, "http://example.com:9090")
}

func TestLoadConfig_IgnoresForeignFlags(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"client", "-z", "whatever"}

	c := LoadConfig()

	assert.Equal(t, c.ServerBaseURL, "http://localhost:8080")
}
