package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/credstore"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/gateway"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/identity"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/notes"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/repositories"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/session"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/vaults"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	gw       gateway.Gateway
	log      logging.Logger
	sessions *session.Manager
	identity *identity.Service
	vaults   *vaults.Store
	notes    *notes.Store
	activity *identity.ActivityMonitor

	reader *bufio.Reader
	out    io.Writer

	pingInterval time.Duration
	modeMu       sync.RWMutex
	mode         Mode

	closers []func() error
}

type appDeps struct {
	gw          gateway.Gateway
	creds       identity.Remembrance
	idleTimeout time.Duration
	ping        time.Duration
	in          io.Reader
	out         io.Writer
	log         logging.Logger
}

// newApp wires the stores around gw. Lock clears the note mirror; logout
// additionally clears the vault mirror.
func newApp(d appDeps) *App {
	sessions := session.NewManager(d.gw, d.log)
	ident := identity.NewService(d.gw, sessions, d.creds, d.log)
	noteStore := notes.NewStore(d.gw, ident, sessions, d.log)
	vaultStore := vaults.NewStore(d.gw, ident, noteStore, d.log)

	ident.OnLock(func(context.Context) { noteStore.Clear() })
	ident.OnLogout(func(ctx context.Context) { _ = vaultStore.LoadAll(ctx, 0) })

	return &App{
		gw:       d.gw,
		log:      d.log,
		sessions: sessions,
		identity: ident,
		vaults:   vaultStore,
		notes:    noteStore,
		activity: identity.NewActivityMonitor(d.idleTimeout),
		reader:   bufio.NewReader(d.in),
		out:      d.out,

		pingInterval: d.ping,
	}
}

// NewApp opens the local database, the secret store and the gateway
// connection described by c.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	repos, err := repositories.InitDatabase(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	secrets, err := credstore.Open(c.SecretStore)
	if err != nil {
		log.Warn(ctx, "secret store unavailable, master secrets will not be kept", "error", err)
		secrets = credstore.None{}
	}

	gw, err := gateway.NewGRPCGateway(c.GatewayAddr,
		gateway.WithCallTimeout(c.CallTimeout),
		gateway.WithLogger(log),
	)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	app := newApp(appDeps{
		gw:          gw,
		creds:       credstore.New(repos.Metadata, secrets, log),
		idleTimeout: c.IdleTimeout,
		ping:        c.OnlineCheckInterval,
		in:          os.Stdin,
		out:         os.Stdout,
		log:         log,
	})
	app.closers = []func() error{gw.Close, repos.Close}
	return app, nil
}

// Run restores a remembered login and serves the REPL until the user exits
// or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.println(Info.Sprint("VaultKeeper CLI (type 'help' for commands)"))
	a.restore(ctx)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(watchCtx, a.pingInterval)

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn(context.Background(), "close failed", "error", err)
		}
	}
}

func (a *App) restore(ctx context.Context) {
	u, restored, locked, err := a.identity.Restore(ctx)
	if err != nil {
		a.log.Warn(ctx, "restore failed", "error", err)
		return
	}
	if !restored {
		return
	}
	if locked {
		a.printf("Welcome back, %s. Type 'unlock' to open your vaults.\n", Highlight.Sprint(u.Username))
		return
	}
	a.printf("Welcome back, %s.\n", Highlight.Sprint(u.Username))
	a.loadVaults(ctx)
}

func (a *App) isLoggedIn() bool {
	_, ok := a.identity.UserID()
	return ok
}

func (a *App) isUnlocked() bool {
	return a.sessions.IsOpen()
}

// checkIdle locks an inactive user before the next command runs.
func (a *App) checkIdle(ctx context.Context) {
	if a.isLoggedIn() && a.isUnlocked() && a.activity.Inactive() {
		a.identity.Lock(ctx)
		a.println(Warning.Sprintf("Locked after %s of inactivity. Type 'unlock' to continue.", a.activity.Timeout()))
	}
	a.activity.Touch()
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()
	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) Mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

// StartOnlineStatusWatcher pings the gateway every interval and records
// whether it answered.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) ping(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.gw.Call(pctx, common.CmdPing, nil, nil); err != nil {
		if errors.Is(err, gateway.ErrBackendUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			a.setMode(ModeOffline)
			return
		}
	}
	a.setMode(ModeOnline)
}

func (a *App) status() string {
	s := ""
	if u, ok := a.identity.Current(); ok {
		s = u.Username
		if !a.isUnlocked() {
			s += " locked"
		} else if id := a.notes.SelectedVaultID(); id != "" {
			if v, ok := a.vaults.Vault(id); ok {
				s += "/" + v.Name
			}
		}
	}
	if m := a.Mode(); m == ModeOffline {
		if s != "" {
			s += " "
		}
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s) ", s)
	}
	return s
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) ask(prompt string) (string, error) {
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) askSecret(prompt string) (string, error) {
	return GetPassword(a.out, prompt)
}

// reportError prints err in the user's terms.
func (a *App) reportError(err error) {
	var msg string
	switch {
	case errors.Is(err, gateway.ErrValidation):
		msg = "Invalid input: " + err.Error()
	case errors.Is(err, gateway.ErrAuthFailure):
		msg = "Not authorized: " + err.Error()
	case errors.Is(err, gateway.ErrNotFound):
		msg = "Not found: " + err.Error()
	case errors.Is(err, gateway.ErrBackendUnavailable):
		msg = "Gateway unavailable, try again later"
	default:
		msg = "Error: " + err.Error()
	}
	a.println(Error.Sprint(msg))
}
