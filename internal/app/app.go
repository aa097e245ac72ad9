// Package app wires configuration, storage, the platform snapshot and the
// resolver together and serves the method channel over gRPC until the
// process is told to stop.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/deviceid/internal/channel"
	"github.com/dmitrijs2005/deviceid/internal/config"
	"github.com/dmitrijs2005/deviceid/internal/emulator"
	"github.com/dmitrijs2005/deviceid/internal/identity"
	"github.com/dmitrijs2005/deviceid/internal/logging"
	"github.com/dmitrijs2005/deviceid/internal/platform/snapshot"
	"github.com/dmitrijs2005/deviceid/internal/resolver"
	"github.com/dmitrijs2005/deviceid/internal/rpc"
	"github.com/dmitrijs2005/deviceid/internal/storage"
	"github.com/dmitrijs2005/deviceid/internal/storage/filestore"
	"github.com/dmitrijs2005/deviceid/internal/storage/keychain"
	"github.com/dmitrijs2005/deviceid/internal/storage/prefs"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *storage.DB
	dispatcher *channel.Dispatcher
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	p, err := identity.ParsePlatform(c.Platform)
	if err != nil {
		return nil, err
	}

	desc, err := snapshot.Load(c.DevicePath, c.DataDir)
	if err != nil {
		return nil, err
	}
	if dp, _ := identity.ParsePlatform(desc.Platform); dp != p {
		return nil, fmt.Errorf("device descriptor %s is for %s, configured platform is %s", c.DevicePath, dp, p)
	}

	detector, err := emulator.New(p, c.EmulatorRules...)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(ctx, c.StoreDriver, c.DSN())
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	deps := resolver.Deps{
		Platform: p,
		Prefs:    prefs.NewStore(prefs.NewSQLRepository(db.Conn, db.Dialect)),
		Emulator: detector,
		Log:      logger,
	}

	if c.WipeAppData {
		if err := deps.Prefs.Clear(ctx); err != nil {
			db.Conn.Close()
			return nil, fmt.Errorf("wipe app data: %w", err)
		}
		logger.Info(ctx, "app data wiped")
	}

	switch p {
	case identity.Android:
		sys := snapshot.NewAndroid(*desc.Android)
		var objects filestore.ObjectStore
		if c.MediaBucket != "" {
			s3o, err := filestore.NewS3Objects(ctx, filestore.S3Config{
				Bucket:    c.MediaBucket,
				Region:    c.MediaRegion,
				Endpoint:  c.MediaEndpoint,
				AccessKey: c.MediaAccessKey,
				SecretKey: c.MediaSecretKey,
			})
			if err != nil {
				db.Conn.Close()
				return nil, fmt.Errorf("media store init error: %w", err)
			}
			objects = s3o
		}
		deps.Android = sys
		deps.Files = filestore.NewAndroid(sys, objects, logger).
			WithDefaults(filestore.Location{Folder: c.FolderName, File: c.FileName})

	case identity.IOS:
		sys, err := snapshot.NewIOS(*desc.IOS)
		if err != nil {
			db.Conn.Close()
			return nil, err
		}
		store, err := keychain.NewSQLStore(ctx, db.Conn, db.Dialect, c.StoreSecret, deps.Prefs)
		if err != nil {
			db.Conn.Close()
			return nil, fmt.Errorf("keychain init error: %w", err)
		}
		deps.IOS = sys
		deps.Keychain = keychain.NewManager(store, keychain.Namespace{
			Service:         c.KeychainService,
			KeyAccount:      c.KeychainKeyAccount,
			DeviceIDAccount: c.KeychainDeviceIDAccount,
		}, logger)
	}

	r, err := resolver.New(deps)
	if err != nil {
		db.Conn.Close()
		return nil, err
	}

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		dispatcher: channel.NewDispatcher(r, logger),
	}, nil
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
	s := rpc.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.dispatcher, app.config.ChannelSecret)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or the
// server fails, then closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "platform", app.dispatcher.Platform())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "close database", "error", err)
	}
}

func (app *App) Close() error {
	return app.db.Close()
}
