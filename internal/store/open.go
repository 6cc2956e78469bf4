package store

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenOptions controls how the database handle is created.
type OpenOptions struct {
	Driver string
	DSN    string
	// LogQueries enables GORM's SQL logger. Statements are written to
	// Logger at info level, or to slog.Default when Logger is nil.
	LogQueries bool
	Logger     *slog.Logger
}

// Open connects to the configured database. SQLite handles are limited to a
// single connection so that in-memory databases are shared by every query.
func Open(opts OpenOptions) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(opts.DSN)
	case DriverPostgres:
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	gl := logger.Default.LogMode(logger.Silent)
	if opts.LogQueries {
		l := opts.Logger
		if l == nil {
			l = slog.Default()
		}
		gl = logger.NewSlogLogger(l, logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Info,
		})
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gl})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}
	if opts.Driver == DriverSQLite || opts.Driver == "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
