package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MigrationStore records which versioned SQL migrations have run and runs
// their scripts.
type MigrationStore interface {
	Applied(ctx context.Context) ([]int, error)
	Apply(ctx context.Context, m Migration) error
	Revert(ctx context.Context, m Migration) error
}

// MigrationLog is one row of the applied-migrations ledger.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

type sqlMigrationStore struct {
	db  *gorm.DB
	log *slog.Logger
}

// NewMigrationStore returns a store backed by the migration_logs table.
func NewMigrationStore(db *gorm.DB, log *slog.Logger) MigrationStore {
	if log == nil {
		log = slog.Default()
	}
	return &sqlMigrationStore{db: db, log: log}
}

// Applied lists recorded versions in ascending order. A database that never
// ran a migration has no ledger table and reports none.
func (s *sqlMigrationStore) Applied(ctx context.Context) ([]int, error) {
	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(&MigrationLog{}) {
		return nil, nil
	}
	var versions []int
	if err := db.Model(&MigrationLog{}).Order("version").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("read migration log: %w", err)
	}
	return versions, nil
}

func (s *sqlMigrationStore) Apply(ctx context.Context, m Migration) error {
	err := s.run(ctx, m, m.UpScript, func(tx *gorm.DB) error {
		return tx.Create(&MigrationLog{Version: m.Version, Name: m.Name}).Error
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "migration applied", slog.String("migration", m.String()))
	return nil
}

func (s *sqlMigrationStore) Revert(ctx context.Context, m Migration) error {
	err := s.run(ctx, m, m.DownScript, func(tx *gorm.DB) error {
		return tx.Where("version = ?", m.Version).Delete(&MigrationLog{}).Error
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "migration reverted", slog.String("migration", m.String()))
	return nil
}

// run executes script and updates the ledger in the same transaction.
func (s *sqlMigrationStore) run(ctx context.Context, m Migration, script string, record func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(script).Error; err != nil {
			return fmt.Errorf("migration %s: %w", m.String(), err)
		}
		if err := record(tx); err != nil {
			return fmt.Errorf("migration %s: update log: %w", m.String(), err)
		}
		return nil
	})
}

// RunMigrations applies every embedded migration not yet in the ledger.
func RunMigrations(ctx context.Context, db *gorm.DB, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	all, err := LoadMigrations()
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("ensure migration log: %w", err)
	}
	return migrateUp(ctx, NewMigrationStore(db, log), all, log)
}

func migrateUp(ctx context.Context, store MigrationStore, all []Migration, log *slog.Logger) error {
	applied, err := store.Applied(ctx)
	if err != nil {
		return err
	}
	pending, err := planMigrations(applied, all)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		log.DebugContext(ctx, "schema up to date", slog.Int("applied", len(applied)))
		return nil
	}

	for _, m := range pending {
		log.InfoContext(ctx, "applying migration", slog.String("migration", m.String()))
		if err := store.Apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// planMigrations returns the migrations missing from applied, in version
// order. A ledger holding a version this binary does not ship means the
// database is ahead of the code, which is refused.
func planMigrations(applied []int, all []Migration) ([]Migration, error) {
	known := make(map[int]bool, len(all))
	for _, m := range all {
		known[m.Version] = true
	}

	var unknown []string
	for _, v := range applied {
		if !known[v] {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("migration_logs has versions unknown to this build: %s", strings.Join(unknown, ", "))
	}

	var pending []Migration
	for _, m := range all {
		if !slices.Contains(applied, m.Version) {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// RollbackMigration runs the down script of one applied migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, log *slog.Logger, version int) error {
	all, err := LoadMigrations()
	if err != nil {
		return err
	}
	return migrateDown(ctx, NewMigrationStore(db, log), all, version)
}

func migrateDown(ctx context.Context, store MigrationStore, all []Migration, version int) error {
	m := findMigration(all, version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	applied, err := store.Applied(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %d has not been applied", version)
	}
	return store.Revert(ctx, *m)
}
