package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vaultkeeper/internal/flagx"
	"github.com/dmitrijs2005/vaultkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	GatewayAddr string         `json:"gateway_addr"`
	CallTimeout timex.Duration `json:"call_timeout"`
	IdleTimeout timex.Duration `json:"idle_timeout"`
	DBPath      string         `json:"db_path"`
	SecretStore string         `json:"secret_store"`
	LogFile     string         `json:"log_file"`

	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays Config with the non-empty values of the JSON file named
// by -c/-config. It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.GatewayAddr, jc.GatewayAddr)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.SecretStore, jc.SecretStore)
	setString(&cfg.LogFile, jc.LogFile)
	if jc.CallTimeout.Duration > 0 {
		cfg.CallTimeout = jc.CallTimeout.Duration
	}
	if jc.IdleTimeout.Duration > 0 {
		cfg.IdleTimeout = jc.IdleTimeout.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
