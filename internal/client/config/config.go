package config

import "time"

// Config holds runtime settings for the VaultKeeper CLI.
type Config struct {
	GatewayAddr string
	CallTimeout time.Duration
	IdleTimeout time.Duration
	DBPath      string
	SecretStore string
	LogFile     string

	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.GatewayAddr = "127.0.0.1:50051"
	c.CallTimeout = 15 * time.Second
	c.IdleTimeout = 60 * time.Minute
	c.DBPath = "vaultkeeper.db"
	c.SecretStore = "none"
	c.LogFile = "vaultkeeper-client.log"
	c.OnlineCheckInterval = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
