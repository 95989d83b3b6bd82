package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/models"
)

// pagination is the paging block of list responses.
type pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// RecordHandler serves the read endpoints of one statistics table.
type RecordHandler[T any] struct {
	table   models.Table
	repo    RecordRepository[T]
	filters filterBuilder
	log     *logrus.Logger
}

// NewRecordHandler creates a RecordHandler. products may be nil for tables
// without a product reference.
func NewRecordHandler[T any](table models.Table, repo RecordRepository[T], products ProductRepository, log *logrus.Logger) *RecordHandler[T] {
	return &RecordHandler[T]{
		table:   table,
		repo:    repo,
		filters: filterBuilder{meta: repo.Meta(), products: products},
		log:     log,
	}
}

// List handles GET /api/v1/<table>.
func (h *RecordHandler[T]) List(c *gin.Context) {
	q := c.Request.URL.Query()

	page, err := parsePage(q)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	filter, err := h.filters.build(c.Request.Context(), q)
	if err != nil {
		if errors.Is(err, models.ErrInvalidFilter) {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

			return
		}

		h.log.WithError(err).WithField("table", h.table.String()).Error("building filter")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	recs, total, err := h.repo.List(c.Request.Context(), filter, page)
	if err != nil {
		if errors.Is(err, models.ErrInvalidFilter) {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

			return
		}

		h.log.WithError(err).WithField("table", h.table.String()).Error("listing records")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	if recs == nil {
		recs = []T{}
	}

	c.JSON(http.StatusOK, gin.H{
		h.table.String(): recs,
		"pagination": pagination{
			Total:   total,
			Limit:   page.Limit,
			Offset:  page.Offset,
			HasMore: page.Offset+len(recs) < total,
		},
	})
}

// Get handles GET /api/v1/<table>/:id.
func (h *RecordHandler[T]) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "id must be a positive integer")

		return
	}

	rec, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "record not found")

			return
		}

		h.log.WithError(err).WithFields(logrus.Fields{"table": h.table.String(), "id": id}).Error("getting record")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, rec)
}
