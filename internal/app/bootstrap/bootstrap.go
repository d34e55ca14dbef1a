package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"golang.org/x/sync/errgroup"

	workgovernance "atelier/contexts/creative-works/work-governance"
	postgresadapter "atelier/contexts/creative-works/work-governance/adapters/postgres"
	sqliteadapter "atelier/contexts/creative-works/work-governance/adapters/sqlite"
	"atelier/contexts/creative-works/work-governance/adapters/system"
	"atelier/contexts/creative-works/work-governance/application/workers"
	"atelier/contexts/creative-works/work-governance/ports"
	"atelier/internal/platform/auth"
	"atelier/internal/platform/config"
	"atelier/internal/platform/db"
	"atelier/internal/platform/httpserver"
	"atelier/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const transferConsumerGroup = "work-governance-transfers-cg"

// App holds one wired process. The same wiring backs serve and worker; they
// differ only in which loops Run* starts.
type App struct {
	cfg      config.Config
	logger   *slog.Logger
	module   workgovernance.Module
	outbox   ports.OutboxRepository
	clock    ports.Clock
	bus      *messaging.Bus
	closeFns []func() error
}

type storage struct {
	module  workgovernance.Module
	outbox  ports.OutboxRepository
	clock   ports.Clock
	closeFn func() error
}

func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.Service.Name)

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		module: store.module,
		outbox: store.outbox,
		clock:  store.clock,
		bus:    messaging.NewBus(cfg.Worker.BatchSize, logger),
	}
	if store.closeFn != nil {
		app.closeFns = append(app.closeFns, store.closeFn)
	}

	logger.Info("app wired",
		"event", "bootstrap_app_wired",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"storage_driver", cfg.Storage.Driver,
		"auth_mode", cfg.Auth.Mode,
	)
	return app, nil
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		module := workgovernance.NewInMemoryModule(cfg.Governance.VoteFee, logger)
		return storage{module: module, outbox: module.Store, clock: module.Store}, nil

	case config.StoragePostgres:
		pg, err := db.Connect(ctx, cfg.Storage.PostgresDSN, cfg.Storage.MaxOpenConns)
		if err != nil {
			return storage{}, err
		}
		if cfg.Storage.AutoMigrate {
			sqlDB, err := pg.SQL()
			if err == nil {
				err = db.Migrate(ctx, sqlDB, goose.DialectPostgres, logger)
			}
			if err != nil {
				_ = pg.Close()
				return storage{}, err
			}
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		module := workgovernance.NewModule(dependencies(cfg, logger, repo, repo, repo, repo, repo, repo))
		return storage{module: module, outbox: repo, clock: system.Clock{}, closeFn: pg.Close}, nil

	case config.StorageSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return storage{}, err
		}
		if cfg.Storage.AutoMigrate {
			if err := db.Migrate(ctx, sqlDB, goose.DialectSQLite3, logger); err != nil {
				_ = sqlDB.Close()
				return storage{}, err
			}
		}
		store := sqliteadapter.NewStore(sqlDB, logger)
		module := workgovernance.NewModule(dependencies(cfg, logger, store, store, store, store, store, store))
		return storage{module: module, outbox: store, clock: system.Clock{}, closeFn: sqlDB.Close}, nil
	}
	return storage{}, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

func dependencies(
	cfg config.Config,
	logger *slog.Logger,
	authors ports.AuthorRepository,
	works ports.WorkRepository,
	tx ports.TxManager,
	transfers ports.ValueTransfer,
	idempotency ports.IdempotencyStore,
	outbox ports.OutboxWriter,
) workgovernance.Dependencies {
	return workgovernance.Dependencies{
		Authors:        authors,
		Works:          works,
		Tx:             tx,
		Transfers:      transfers,
		Idempotency:    idempotency,
		Outbox:         outbox,
		Clock:          system.Clock{},
		IDGenerator:    system.UUIDs{},
		VoteFee:        cfg.Governance.VoteFee,
		IdempotencyTTL: cfg.Governance.IdempotencyTTL,
		Logger:         logger,
	}
}

// Identity picks the caller resolver for the configured auth mode.
func Identity(cfg config.AuthConfig) (httpserver.IdentityResolver, error) {
	switch cfg.Mode {
	case config.AuthModeHeader:
		return httpserver.HeaderIdentity{}, nil
	case config.AuthModeJWT:
		if cfg.JWTSecret == "" {
			return nil, errors.New("auth.jwt_secret is required in jwt mode")
		}
		return httpserver.BearerIdentity{Tokens: auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, 0)}, nil
	}
	return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
}

// Module exposes the wired work-governance module.
func (a *App) Module() workgovernance.Module {
	return a.module
}

// RunServer serves HTTP until ctx is cancelled. With worker.embed_relay the
// outbox relay and transfer consumer run alongside it.
func (a *App) RunServer(ctx context.Context) error {
	identity, err := Identity(a.cfg.Auth)
	if err != nil {
		return err
	}
	server := httpserver.New(a.module, identity, a.logger, httpserver.Options{
		Addr:            a.cfg.HTTP.Addr,
		ReadTimeout:     a.cfg.HTTP.ReadTimeout,
		WriteTimeout:    a.cfg.HTTP.WriteTimeout,
		ShutdownTimeout: a.cfg.HTTP.ShutdownTimeout,
		EnableSwagger:   a.cfg.HTTP.EnableSwagger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(ctx) })
	if a.cfg.Worker.EmbedRelay {
		if err := a.startConsumer(ctx); err != nil {
			return err
		}
		g.Go(func() error { return a.relay().Run(ctx, a.cfg.Worker.PollInterval) })
	}
	return g.Wait()
}

// RunWorker drains the outbox onto the bus and settles transfer requests
// until ctx is cancelled.
func (a *App) RunWorker(ctx context.Context) error {
	if a.cfg.Storage.Driver == config.StorageMemory {
		return errors.New("worker needs shared storage; use the postgres or sqlite driver")
	}
	if err := a.startConsumer(ctx); err != nil {
		return err
	}

	a.logger.Info("worker started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", a.cfg.Worker.PollInterval.String(),
	)

	return a.relay().Run(ctx, a.cfg.Worker.PollInterval)
}

func (a *App) relay() workers.OutboxRelay {
	return workers.OutboxRelay{
		Outbox:    a.outbox,
		Publisher: a.bus,
		Clock:     a.clock,
		Topic:     a.cfg.Worker.Topic,
		BatchSize: a.cfg.Worker.BatchSize,
		Logger:    a.logger,
	}
}

func (a *App) startConsumer(ctx context.Context) error {
	consumer := workers.TransferConsumer{
		Subscriber:    a.bus,
		Topic:         a.cfg.Worker.Topic,
		ConsumerGroup: transferConsumerGroup,
		Logger:        a.logger,
	}
	return consumer.Start(ctx)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		if err := a.closeFns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Migrate applies the embedded migrations for the configured SQL driver.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var (
		sqlDB   *sql.DB
		dialect goose.Dialect
	)
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pg, err := db.Connect(ctx, cfg.Storage.PostgresDSN, 1)
		if err != nil {
			return err
		}
		defer pg.Close()
		if sqlDB, err = pg.SQL(); err != nil {
			return err
		}
		dialect = goose.DialectPostgres
	case config.StorageSQLite:
		var err error
		if sqlDB, err = db.OpenSQLite(ctx, cfg.Storage.SQLitePath); err != nil {
			return err
		}
		defer sqlDB.Close()
		dialect = goose.DialectSQLite3
	default:
		return fmt.Errorf("storage driver %q has no migrations", cfg.Storage.Driver)
	}
	return db.Migrate(ctx, sqlDB, dialect, logger)
}
