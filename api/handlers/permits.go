package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/permitleads/leadstack/interfaces"
	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/models"
	"github.com/permitleads/leadstack/internal/repository"
	"github.com/permitleads/leadstack/internal/tracing"
)

type PermitsHandler struct {
	repositories *repository.Repositories
}

func NewPermitsHandler(r *repository.Repositories) *PermitsHandler {
	return &PermitsHandler{repositories: r}
}

// Ingest upserts a batch of scraped permits, keyed on (city, permit_number).
func (h *PermitsHandler) Ingest() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "PermitsHandler.Ingest", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var permits []*models.Permit
		if err := c.ShouldBindJSON(&permits); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		inserted, err := h.repositories.PermitRepository.IngestBatch(ctx, permits)
		if err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, repository.ErrInvalidInput) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": len(permits), "inserted": inserted})
	}
}

// List returns permits filtered by city, status, work class and free-text search.
func (h *PermitsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "PermitsHandler.List", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		filters := interfaces.PermitFilters{
			City:      c.Query("city"),
			Status:    enum.PermitStatus(c.Query("status")),
			WorkClass: c.Query("work_class"),
			Search:    c.Query("search"),
		}
		limit, offset := pagination(c)

		permits, total, err := h.repositories.PermitRepository.List(ctx, filters, limit, offset)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"permits": permits, "total": total})
	}
}

// Get returns a single permit by id.
func (h *PermitsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "PermitsHandler.Get", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		permit, err := h.repositories.PermitRepository.GetByID(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, repository.ErrPermitNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, permit)
	}
}

// UpdateStatus archives or reactivates a permit.
func (h *PermitsHandler) UpdateStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "PermitsHandler.UpdateStatus", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		var body struct {
			Status enum.PermitStatus `json:"status"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := h.repositories.PermitRepository.UpdateStatus(ctx, c.Param("id"), body.Status)
		if err != nil {
			tracing.TraceErr(span, err)
			switch {
			case errors.Is(err, repository.ErrPermitNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case errors.Is(err, repository.ErrInvalidInput):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "updated", "id": c.Param("id")})
	}
}

// Stats returns permit counts per city.
func (h *PermitsHandler) Stats() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "PermitsHandler.Stats", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		counts, err := h.repositories.PermitRepository.CountByCity(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"cities": counts})
	}
}

func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "25"))
	if err != nil || limit <= 0 {
		limit = 25
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
