package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"talkhub/internal/config"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// schemaPlan is what ApplySchema will do for one configuration.
type schemaPlan struct {
	Mode    string
	RunSQL  bool
	RunAuto bool
}

// planSchema picks between the embedded SQL migrations and AutoMigrate.
// The SQL is postgres dialect, so sqlite always uses AutoMigrate, and
// AutoMigrate never runs on its own against production data.
func planSchema(cfg *config.Config) (schemaPlan, error) {
	plan := schemaPlan{Mode: cfg.DBSchemaMode}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	prodLike := slices.Contains([]string{"production", "prod", "staging", "stage"}, cfg.Env)

	switch {
	case plan.Mode != SchemaModeHybrid && plan.Mode != SchemaModeSQL && plan.Mode != SchemaModeAuto:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	case cfg.DBDriver == "sqlite" && plan.Mode == SchemaModeSQL:
		return plan, fmt.Errorf("DB_SCHEMA_MODE=sql requires the postgres driver")
	case cfg.DBDriver == "sqlite":
		plan.RunAuto = true
	case plan.Mode == SchemaModeAuto && prodLike:
		return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
	case plan.Mode == SchemaModeAuto:
		plan.RunAuto = true
	case plan.Mode == SchemaModeSQL:
		plan.RunSQL = true
	default:
		plan.RunSQL = true
		plan.RunAuto = !prodLike
	}
	return plan, nil
}

// AutoMigrate creates or updates every talkhub table from the models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the schema up to date for the configured mode.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.RunSQL {
		if err := RunMigrations(ctx, db, log); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.RunAuto {
		log.InfoContext(ctx, "applying model schema",
			slog.String("mode", plan.Mode),
			slog.String("env", cfg.Env),
			slog.String("driver", cfg.DBDriver),
		)
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// SchemaStatus describes what ApplySchema would do and what is missing.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
	// MissingTables lists model tables absent from the database.
	MissingTables []string
}

// GetSchemaStatus reports the plan, the pending SQL migrations and any
// model table that does not exist yet.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, log *slog.Logger) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{
		Mode:               plan.Mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.RunSQL,
		WillRunAutoMigrate: plan.RunAuto,
	}

	migrator := db.WithContext(ctx).Migrator()
	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model: %w", err)
		}
		if !migrator.HasTable(stmt.Schema.Table) {
			status.MissingTables = append(status.MissingTables, stmt.Schema.Table)
		}
	}

	if !plan.RunSQL {
		return status, nil
	}

	all, err := LoadMigrations()
	if err != nil {
		return nil, err
	}
	applied, err := NewMigrationStore(db, log).Applied(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := planMigrations(applied, all)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	status.PendingMigrations = pending
	return status, nil
}
