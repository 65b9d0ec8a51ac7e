package database

import (
	"time"

	"talkhub/internal/observability"

	"gorm.io/gorm"
)

const startedAtKey = "talkhub:started_at"

// RegisterMetricsCallbacks records the latency of every GORM operation in
// the talkhub_database_query_latency_seconds histogram.
func RegisterMetricsCallbacks(db *gorm.DB) error {
	type hook struct {
		op       string
		register func(name string, before, after func(*gorm.DB)) error
	}

	cb := db.Callback()
	hooks := []hook{
		{"create", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(name+":after", after)
		}},
		{"query", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(name+":after", after)
		}},
		{"update", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(name+":after", after)
		}},
		{"delete", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(name+":after", after)
		}},
		{"raw", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register(name+":after", after)
		}},
	}

	for _, h := range hooks {
		op := h.op
		before := func(tx *gorm.DB) {
			tx.InstanceSet(startedAtKey, time.Now())
		}
		after := func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startedAtKey)
			if !ok {
				return
			}
			started, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			observability.DatabaseQueryLatency.WithLabelValues(op, table).Observe(time.Since(started).Seconds())
		}
		if err := h.register("talkhub:metrics:"+op, before, after); err != nil {
			return err
		}
	}
	return nil
}
