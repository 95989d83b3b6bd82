package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/ingest"
	"github.com/persistorai/vitiapi/internal/metrics"
	"github.com/persistorai/vitiapi/internal/models"
)

// StatsHandler serves the table statistics endpoint.
type StatsHandler struct {
	repo   StatsRepository
	ingest IngestStatus
	log    *logrus.Logger
}

// NewStatsHandler creates a StatsHandler. status may be nil when ingestion is disabled.
func NewStatsHandler(repo StatsRepository, status IngestStatus, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{repo: repo, ingest: status, log: log}
}

// statsResponse is the JSON payload returned by the stats endpoint.
type statsResponse struct {
	Tables        map[string]int `json:"tables"`
	Total         int            `json:"total"`
	Ingestion     ingest.State   `json:"ingestion,omitempty"`
	LastIngestion *ingest.Report `json:"last_ingestion,omitempty"`
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	counts, err := h.repo.Counts(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("stats: counting rows")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	resp := statsResponse{Tables: make(map[string]int, len(counts))}

	for _, t := range models.Tables() {
		n := counts[t]
		resp.Tables[t.String()] = n
		resp.Total += n

		metrics.TableRows.WithLabelValues(t.String()).Set(float64(n))
	}

	if h.ingest != nil {
		resp.Ingestion = h.ingest.State()
		resp.LastIngestion = h.ingest.LastReport()
	}

	c.JSON(http.StatusOK, resp)
}
