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

	assert.Equal(t, "vaultkeeper-gateway.db", c.DatabaseDSN)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 7*24*time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, 8*time.Hour, c.SessionTTL)
	assert.Empty(t, c.S3Bucket, "images stay in the database by default")
	assert.Equal(t, "us-east-1", c.S3Region)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"gatewayd"}

	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, 8*time.Hour, c.SessionTTL)
}
