package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/flagx"
)

// parseFlags populates Config fields from the flags listed in the package
// doc. Unknown arguments are filtered out first so other flag sets can share
// os.Args.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-i", "-d", "-k", "-l", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.GatewayAddr, "a", cfg.GatewayAddr, "address and port of the gateway")
	callTimeout := fs.Int("t", int(cfg.CallTimeout.Seconds()), "gateway call timeout (in seconds)")
	idleTimeout := fs.Int("i", int(cfg.IdleTimeout.Minutes()), "idle timeout (in minutes)")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "local database path")
	fs.StringVar(&cfg.SecretStore, "k", cfg.SecretStore, "master secret store (none|keyring)")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")
	onlineCheck := fs.Int("o", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds, 0 disables)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.CallTimeout = time.Duration(*callTimeout) * time.Second
	cfg.IdleTimeout = time.Duration(*idleTimeout) * time.Minute
	cfg.OnlineCheckInterval = time.Duration(*onlineCheck) * time.Second
}
