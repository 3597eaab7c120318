// Package config loads runtime configuration for the VaultKeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the gateway
//	-t int      per-call timeout (seconds)
//	-i int      idle timeout before the vault is locked (minutes)
//	-d string   path of the local SQLite database
//	-k string   master secret store: none or keyring
//	-l string   log file
//	-o int      gateway reachability check interval (seconds, 0 disables)
//
// # JSON schema
//
// Durations use timex.Duration, so "15s" and integer nanoseconds both work.
// Missing keys keep their defaults:
//
//	{
//	  "gateway_addr": "127.0.0.1:50051",
//	  "call_timeout": "15s",
//	  "idle_timeout": "1h",
//	  "db_path": "vaultkeeper.db",
//	  "secret_store": "keyring",
//	  "log_file": "vaultkeeper-client.log",
//	  "online_check_interval": "30s"
//	}
package config
