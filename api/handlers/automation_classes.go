package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/models"
	"github.com/permitleads/leadstack/internal/repository"
	"github.com/permitleads/leadstack/internal/tracing"
)

type AutomationClassesHandler struct {
	repositories *repository.Repositories
}

func NewAutomationClassesHandler(r *repository.Repositories) *AutomationClassesHandler {
	return &AutomationClassesHandler{repositories: r}
}

// Create persists a new automation class. The rule payload is validated
// synchronously; a malformed configuration comes back as 400 and is never
// stored.
func (h *AutomationClassesHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AutomationClassesHandler.Create", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var class models.AutomationClass
		if err := c.ShouldBindJSON(&class); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := h.repositories.AutomationClassRepository.Create(ctx, &class); err != nil {
			tracing.TraceErr(span, err)
			switch {
			case errors.Is(err, repository.ErrInvalidRules), errors.Is(err, repository.ErrInvalidInput):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusCreated, class)
	}
}

func (h *AutomationClassesHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AutomationClassesHandler.Get", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		class, err := h.repositories.AutomationClassRepository.GetByID(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, repository.ErrClassNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, class)
	}
}

// List returns every active automation class.
func (h *AutomationClassesHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AutomationClassesHandler.List", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		classes, err := h.repositories.AutomationClassRepository.ListActive(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"automationClasses": classes})
	}
}

func (h *AutomationClassesHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AutomationClassesHandler.Update", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		var class models.AutomationClass
		if err := c.ShouldBindJSON(&class); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		class.ID = c.Param("id")

		if err := h.repositories.AutomationClassRepository.Update(ctx, &class); err != nil {
			tracing.TraceErr(span, err)
			switch {
			case errors.Is(err, repository.ErrClassNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case errors.Is(err, repository.ErrInvalidRules), errors.Is(err, repository.ErrInvalidInput):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, class)
	}
}

func (h *AutomationClassesHandler) SetStatus(status enum.ClassStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AutomationClassesHandler.SetStatus", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		if err := h.repositories.AutomationClassRepository.SetStatus(ctx, c.Param("id"), status); err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, repository.ErrClassNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": status.String(), "id": c.Param("id")})
	}
}

func (h *AutomationClassesHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AutomationClassesHandler.Delete", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		if err := h.repositories.AutomationClassRepository.Delete(ctx, c.Param("id")); err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, repository.ErrClassNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": c.Param("id")})
	}
}
