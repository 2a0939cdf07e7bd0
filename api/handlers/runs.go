package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/permitleads/leadstack/internal/repository"
	"github.com/permitleads/leadstack/internal/tracing"
	"github.com/permitleads/leadstack/services/distributor"
)

type RunsHandler struct {
	repositories *repository.Repositories
	distributor  *distributor.Service
}

func NewRunsHandler(r *repository.Repositories, engine *distributor.Service) *RunsHandler {
	return &RunsHandler{repositories: r, distributor: engine}
}

// Trigger runs the engine for one class when automationClassId is given,
// otherwise for every active class.
func (h *RunsHandler) Trigger() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "RunsHandler.Trigger", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var body struct {
			AutomationClassID string `json:"automationClassId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if body.AutomationClassID == "" {
			results, err := h.distributor.RunAll(ctx)
			if err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"results": results})
			return
		}

		class, err := h.repositories.AutomationClassRepository.GetByID(ctx, body.AutomationClassID)
		if err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, repository.ErrClassNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		result, err := h.distributor.Run(ctx, class)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"results": []*distributor.RunResult{result}})
	}
}

// Leads returns the ledger view for one automation class.
func (h *RunsHandler) Leads() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "RunsHandler.Leads", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		limit, offset := pagination(c)
		leads, total, err := h.repositories.LeadRepository.ListByClass(ctx, c.Param("id"), limit, offset)
		if err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, repository.ErrInvalidInput) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"leads": leads, "total": total})
	}
}
