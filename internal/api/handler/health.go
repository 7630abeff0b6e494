package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

const version = "0.1.0"

// Pinger checks a backing dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// OrphanScanner reports capture artifacts missing their partner file
type OrphanScanner interface {
	Orphans(ctx context.Context) ([]string, error)
}

type HealthHandler struct {
	db     Pinger
	store  OrphanScanner
	logger *slog.Logger
}

// NewHealthHandler builds the liveness and readiness checks. db may be nil when accounts are disabled.
func NewHealthHandler(db Pinger, store OrphanScanner, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		store:  store,
		logger: logger,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type ReadyResponse struct {
	Status            string            `json:"status"`
	Checks            map[string]string `json:"checks"`
	OrphanedArtifacts int               `json:"orphaned_artifacts"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: version,
	})
}

// Ready reports 503 when a dependency is down. Orphaned capture artifacts
// are reported but do not fail readiness.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx := c.UserContext()
	resp := ReadyResponse{
		Status: "ready",
		Checks: map[string]string{},
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("readiness: database unreachable", "error", err)
			resp.Status = "not_ready"
			resp.Checks["database"] = "unreachable"
		} else {
			resp.Checks["database"] = "ok"
		}
	}

	if h.store != nil {
		orphans, err := h.store.Orphans(ctx)
		switch {
		case err != nil:
			h.logger.Warn("readiness: capture store unreadable", "error", err)
			resp.Status = "not_ready"
			resp.Checks["capture_store"] = "unreadable"
		case len(orphans) > 0:
			h.logger.Warn("capture store has orphaned artifacts", "count", len(orphans), "files", orphans)
			resp.Checks["capture_store"] = "inconsistent"
			resp.OrphanedArtifacts = len(orphans)
		default:
			resp.Checks["capture_store"] = "ok"
		}
	}

	status := fiber.StatusOK
	if resp.Status != "ready" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
