package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getmockd/crudgen/pkg/logging"
	"github.com/getmockd/crudgen/pkg/metrics"
	"github.com/getmockd/crudgen/pkg/openapi"
	"github.com/getmockd/crudgen/pkg/resource"
	"github.com/getmockd/crudgen/pkg/server"
	"github.com/getmockd/crudgen/pkg/service"
	"github.com/getmockd/crudgen/pkg/store"
	"github.com/getmockd/crudgen/pkg/store/memory"
	"github.com/getmockd/crudgen/pkg/store/sqlstore"
)

// App is a configured store with its resources mounted on a server.
type App struct {
	Config    *Config
	Server    *server.Server
	Resources []*resource.Resource
	Metrics   *metrics.CRUD

	close func() error
}

// Build opens the store, creates and seeds the declared tables, builds one
// resource per entry and mounts everything on a new server. The caller owns
// the returned App and must Close it.
func Build(ctx context.Context, cfg *Config, log *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if log == nil {
		log = logging.Nop()
	}

	opener, closeStore, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Server: server.New(cfg.ServerConfig(), log),
		close:  closeStore,
	}
	app.Metrics = metrics.NewCRUD(app.Server.Metrics())
	observer := service.MultiObserver{
		app.Metrics,
		service.LogObserver{Logger: log},
	}

	for i, rc := range cfg.Resources {
		model, err := opener.Model(rc.Table)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("resources[%d]: %w", i, err)
		}
		strategy, err := rc.Strategy()
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("resources[%d].custom: %w", i, err)
		}
		res, err := resource.New(model, rc.Chain.Route(), strategy,
			service.WithObserver(observer),
			service.WithLogger(log),
		)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("resources[%d]: %w", i, err)
		}
		app.Resources = append(app.Resources, res)
	}

	app.Server.Mount(app.Resources...)
	if err := app.Server.MountOpenAPI(ctx, openapi.Info{Title: cfg.Server.Title}); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("building OpenAPI document: %w", err)
	}
	return app, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	closeFn := a.close
	a.close = nil
	return closeFn()
}

// OpenStore opens the configured store and registers every table. Seed rows
// are only written to SQL tables that are still empty, so a file or server
// database is not seeded twice.
func OpenStore(ctx context.Context, cfg *Config, log *slog.Logger) (store.Opener, func() error, error) {
	if cfg.Store.Driver == DriverMemory {
		db := memory.New()
		for _, t := range cfg.Store.Tables {
			if err := db.CreateTable(memoryTable(t)); err != nil {
				return nil, nil, err
			}
		}
		log.Debug("memory store ready", "tables", db.Tables())
		return db, func() error { return nil }, nil
	}

	sqlCfg := cfg.SQLConfig()
	if sqlCfg.Driver == DriverSQLite && sqlCfg.DSN == "" {
		sqlCfg.DSN = ":memory:"
	}
	db, err := sqlstore.Open(ctx, sqlCfg)
	if err != nil {
		return nil, nil, err
	}
	db.SetLogger(log)

	for _, t := range cfg.Store.Tables {
		if err := db.CreateTable(ctx, t); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if len(t.Seed) == 0 {
			continue
		}
		model, err := db.Model(t.Name)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		existing, err := model.Where(ctx, nil)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if len(existing) > 0 {
			log.Debug("skipping seed of non-empty table", "table", t.Name, "rows", len(existing))
			continue
		}
		if err := db.Seed(ctx, t.Name, t.Seed); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	log.Debug("sql store ready", "driver", db.Driver(), "tables", db.Tables())
	return db, db.Close, nil
}

func memoryTable(t sqlstore.TableSchema) memory.TableConfig {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Name
	}
	return memory.TableConfig{
		Name:      t.Name,
		Columns:   cols,
		Relations: t.Relations,
		Seed:      t.Seed,
	}
}
