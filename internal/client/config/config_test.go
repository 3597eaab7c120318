package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.GatewayAddr)
	assert.Equal(t, 15*time.Second, c.CallTimeout)
	assert.Equal(t, time.Hour, c.IdleTimeout)
	assert.Equal(t, "none", c.SecretStore)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"vaultkeeper"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "127.0.0.1:50051", cfg.GatewayAddr)
	assert.Equal(t, 15*time.Second, cfg.CallTimeout)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"gateway_addr": "json:1",
		"secret_store": "keyring",
	})
	os.Args = []string{"vaultkeeper", "-c", path, "-a", "flag:2"}

	cfg := LoadConfig()
	assert.Equal(t, "flag:2", cfg.GatewayAddr)
	assert.Equal(t, "keyring", cfg.SecretStore)
}
