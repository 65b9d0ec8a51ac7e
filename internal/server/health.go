package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = 5 * time.Second

// dependency is one backing service probed for readiness. An optional
// dependency that is down degrades the service instead of failing it.
type dependency struct {
	name     string
	optional bool
	// probe is nil when the dependency is not configured.
	probe func(ctx context.Context) error
}

type probeResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

func (d dependency) check(ctx context.Context, log *slog.Logger) probeResult {
	if d.probe == nil {
		return probeResult{Status: "unavailable"}
	}
	start := time.Now()
	err := d.probe(ctx)
	res := probeResult{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		res.Status = "unhealthy"
		log.WarnContext(ctx, "readiness probe failed",
			slog.String("dependency", d.name),
			slog.String("error", err.Error()),
		)
	}
	return res
}

func (s *Server) dependencies() []dependency {
	deps := []dependency{{
		name: "database",
		probe: func(ctx context.Context) error {
			sqlDB, err := s.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}

	// Redis only backs caches and hit counting.
	cache := dependency{name: "redis", optional: true}
	if s.redis != nil {
		cache.probe = func(ctx context.Context) error { return s.redis.Ping(ctx).Err() }
	}
	return append(deps, cache)
}

// LivenessCheck reports that the process is serving.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now()})
}

// ReadinessCheck probes each dependency. Only required dependencies decide
// the status code.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	overall, code := "healthy", fiber.StatusOK
	checks := make(map[string]probeResult)
	for _, dep := range s.dependencies() {
		res := dep.check(ctx, s.logger)
		checks[dep.name] = res
		switch {
		case res.Status == "healthy":
		case !dep.optional:
			overall, code = "unhealthy", fiber.StatusServiceUnavailable
		case overall == "healthy":
			overall = "degraded"
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"status":      overall,
		"checks":      checks,
		"connections": s.hub.ConnectionCount(),
		"time":        time.Now(),
	})
}
