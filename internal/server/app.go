// Package server assembles the gateway daemon: storage, image store, session
// cache, services and the gRPC endpoint, with graceful shutdown on signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/images"
	imagerepo "github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/images"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/vaultkeeper/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *gs.GRPCServer
	sync   func() error
}

func newLogger(c *config.Config) (logging.Logger, func() error) {
	if c.LogFile == "" {
		return logging.NewJSONLogger(os.Stdout, false), func() error { return nil }
	}
	z := logging.NewFileZapLogger(logging.FileOptions{Path: c.LogFile})
	return z, z.Sync
}

func newImageStore(ctx context.Context, c *config.Config, db *sql.DB, m *repomanager.SQLRepositoryManager) (images.Store, error) {
	if c.S3Bucket == "" {
		return images.NewDBStore(db, func(db *sql.DB) imagerepo.Repository { return m.Images(db) }), nil
	}
	return images.NewS3Store(ctx, images.S3Options{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
	})
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, syncLog := newLogger(c)

	if c.SecretKey == "" {
		secret, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, fmt.Errorf("secret key: %w", err)
		}
		c.SecretKey = secret
		logger.Warn(ctx, "no secret key configured, using a random one; tokens will not survive a restart")
	}

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	img, err := newImageStore(ctx, c, db, rm)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("image store init error: %w", err)
	}

	sessions := services.NewSessionService(c.SessionTTL)

	srv := gs.NewGRPCServer(c.EndpointAddrGRPC, logger,
		services.NewUserService(db, rm, sessions, img, logger, c),
		services.NewVaultService(db, rm, sessions, img, logger),
		services.NewCollectionService(db, rm, sessions, logger),
		services.NewNoteService(db, rm, sessions, logger),
	)

	logger.Info(ctx, "storage ready", "dialect", rm.Dialect().String(), "s3", c.S3Bucket != "")

	return &App{config: c, logger: logger, db: db, server: srv, sync: syncLog}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
	_ = app.sync()
}
