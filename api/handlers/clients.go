package handlers

import (
	"errors"
	"net/http"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/gin-gonic/gin"

	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/models"
	"github.com/permitleads/leadstack/internal/repository"
	"github.com/permitleads/leadstack/internal/tracing"
)

var ErrInvalidEmail = errors.New("email address is invalid")

type ClientsHandler struct {
	repositories *repository.Repositories
}

func NewClientsHandler(r *repository.Repositories) *ClientsHandler {
	return &ClientsHandler{repositories: r}
}

// validateClientEmail checks syntax and normalizes the address in place.
func validateClientEmail(email *string) error {
	validate := mailvalidate.ValidateEmailSyntax(*email)
	if !validate.IsValid || validate.IsSystemGenerated {
		return ErrInvalidEmail
	}
	*email = validate.CleanEmail
	return nil
}

func (h *ClientsHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ClientsHandler.Create", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var client models.Client
		if err := c.ShouldBindJSON(&client); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := validateClientEmail(&client.Email); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := h.repositories.ClientRepository.Create(ctx, &client); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, client)
	}
}

func (h *ClientsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ClientsHandler.Get", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		client, err := h.repositories.ClientRepository.GetByID(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, repository.ErrClientNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, client)
	}
}

func (h *ClientsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ClientsHandler.List", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		limit, offset := pagination(c)
		clients, total, err := h.repositories.ClientRepository.List(ctx, enum.ClientStatus(c.Query("status")), limit, offset)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"clients": clients, "total": total})
	}
}

func (h *ClientsHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ClientsHandler.Update", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		var client models.Client
		if err := c.ShouldBindJSON(&client); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		client.ID = c.Param("id")

		if err := validateClientEmail(&client.Email); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := h.repositories.ClientRepository.Update(ctx, &client); err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, repository.ErrClientNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, client)
	}
}

// Delete soft-deletes the client and deactivates its automation classes.
func (h *ClientsHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ClientsHandler.Delete", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		if err := h.repositories.ClientRepository.Delete(ctx, c.Param("id")); err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, repository.ErrClientNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": c.Param("id")})
	}
}

// Classes lists the automation classes owned by one client.
func (h *ClientsHandler) Classes() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ClientsHandler.Classes", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		classes, err := h.repositories.AutomationClassRepository.ListByClient(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"automationClasses": classes})
	}
}
