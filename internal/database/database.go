// Package database opens the GORM connection and owns the schema: embedded
// SQL migrations, model auto-migration and query metrics.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"talkhub/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Pool defaults used when the configuration leaves a value at zero.
const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
	defaultConnLifetime = 5 * time.Minute
)

// ConnectOptions controls what happens after the pool is open.
type ConnectOptions struct {
	ApplySchema bool
}

// Connect opens the configured database and brings its schema up to date.
func Connect(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	return ConnectWithOptions(cfg, log, ConnectOptions{ApplySchema: true})
}

func ConnectWithOptions(cfg *config.Config, log *slog.Logger, opts ConnectOptions) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}
	if err := RegisterMetricsCallbacks(db); err != nil {
		return nil, fmt.Errorf("register query metrics: %w", err)
	}
	log.Info("database connected", slog.String("driver", cfg.DBDriver))

	if opts.ApplySchema {
		if err := ApplySchema(context.Background(), db, cfg, log); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.Open(SQLiteDSN(cfg.DBSQLitePath)), nil
	case "postgres", "":
		return postgres.Open(postgresDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// postgresDSN builds a URL connection string so credentials containing
// spaces or '@' survive intact.
func postgresDSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     cfg.DBHost + ":" + cfg.DBPort,
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// SQLiteDSN enables foreign keys so ON DELETE CASCADE behaves as on postgres.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=1&_busy_timeout=5000"
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	maxOpen := orDefault(cfg.DBMaxOpenConns, defaultMaxOpenConns)
	if cfg.DBDriver == "sqlite" {
		// One writer keeps sqlite from returning SQLITE_BUSY under load.
		maxOpen = 1
	}
	lifetime := defaultConnLifetime
	if cfg.DBConnMaxLifetimeMinutes > 0 {
		lifetime = time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(orDefault(cfg.DBMaxIdleConns, defaultMaxIdleConns))
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
