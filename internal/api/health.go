// Package api provides HTTP handlers for the statistics service.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/db"
)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	db        DBChecker
	ingest    IngestStatus
	log       *logrus.Logger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. Either dependency may be nil.
func NewHealthHandler(checker DBChecker, status IngestStatus, log *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		db:        checker,
		ingest:    status,
		log:       log,
		version:   version,
		startTime: time.Now(),
	}
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthResponse is the JSON payload returned by the health/liveness endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	SchemaVersion int     `json:"schema_version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Liveness handles GET /api/v1/health. The database ping is informational only.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Database:      "connected",
		SchemaVersion: db.SchemaVersion(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}
	} else {
		resp.Database = "not_configured"
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready. The service is ready once the database
// answers and startup ingestion has finished.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{
		"database":  "ok",
		"ingestion": "ok",
		"schema":    strconv.Itoa(db.SchemaVersion()),
	}
	status := "ready"
	statusCode := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if h.db == nil {
		checks["database"] = "not_configured"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	} else if err := h.db.HealthCheck(ctx); err != nil {
		h.log.WithError(err).Error("readiness: database health check failed")
		checks["database"] = "error"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	} else {
		acquired, idle := h.db.Stats()
		checks["pool"] = fmt.Sprintf("%d acquired, %d idle", acquired, idle)
	}

	if h.ingest != nil && !h.ingest.Finished() {
		checks["ingestion"] = string(h.ingest.State())
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, readinessResponse{
		Status: status,
		Checks: checks,
	})
}
