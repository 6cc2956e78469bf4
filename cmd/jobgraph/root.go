package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/hanpama/jobgraph/internal/config"
	"github.com/hanpama/jobgraph/internal/eventbus"
	"github.com/hanpama/jobgraph/internal/logging"
	"github.com/hanpama/jobgraph/internal/registry"
	"github.com/hanpama/jobgraph/internal/store"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	dbDriver   string
	dbDSN      string

	cfg    *config.Config
	logger *slog.Logger
	bus    *eventbus.Bus
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "jobgraph",
		Short: "GraphQL API for users and jobs",
		Long: `jobgraph serves a small GraphQL API over users and the jobs they own.
Data lives in SQLite or PostgreSQL; configuration comes from a YAML file,
JOBGRAPH_* environment variables and command-line flags, in that order.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format (text, json)")
	pf.StringVar(&a.dbDriver, "db-driver", "", "Database driver (sqlite, postgres)")
	pf.StringVar(&a.dbDSN, "db-dsn", "", "Database DSN")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
		newSchemaCmd(a),
		newCallCmd(a),
	)
	return root
}

// load resolves the configuration and builds the logger. Flags that were set
// explicitly win over file and environment values.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("log-level", &cfg.Log.Level, a.logLevel)
	override("log-format", &cfg.Log.Format, a.logFormat)
	override("db-driver", &cfg.Database.Driver, a.dbDriver)
	override("db-dsn", &cfg.Database.DSN, a.dbDSN)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	a.logger, err = logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.bus = eventbus.New()
	eventbus.Use(a.bus)
	logging.Subscribe(a.bus, a.logger)
	return nil
}

// backend is an open database with a registry on top of it.
type backend struct {
	db  *gorm.DB
	st  *store.GormStore
	reg *registry.Registry
}

func (b *backend) Close() error { return store.Close(b.db) }

// open connects to the database, migrating it first when migrate is set.
func (a *app) open(ctx context.Context, migrate bool) (*backend, error) {
	db, err := store.Open(a.cfg.StoreOptions(logging.RequestScoped(a.logger)))
	if err != nil {
		return nil, err
	}
	st := store.NewGormStore(db)
	if migrate {
		if err := st.Migrate(ctx); err != nil {
			_ = store.Close(db)
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	reg, err := registry.New(st)
	if err != nil {
		_ = store.Close(db)
		return nil, fmt.Errorf("build registry: %w", err)
	}
	return &backend{db: db, st: st, reg: reg}, nil
}
