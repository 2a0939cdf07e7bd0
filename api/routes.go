package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/permitleads/leadstack/api/handlers"
	"github.com/permitleads/leadstack/api/middleware"
	"github.com/permitleads/leadstack/internal/enum"
	"github.com/permitleads/leadstack/internal/repository"
	"github.com/permitleads/leadstack/internal/tracing"
	"github.com/permitleads/leadstack/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	// setup handlers
	apiHandlers := handlers.InitHandlers(repos, s.Distributor)

	// Health check endpoint (no custom context needed)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-LEADSTACK-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group with version and custom context
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.CustomContextMiddleware("leadstack")) // Add custom context for all /v1/* endpoints
	api.Use(middleware.TracingMiddleware())                  // Add tracing for all /v1/* endpoints
	{
		// Permit endpoints
		permits := api.Group("/permits")
		{
			permits.POST("", apiHandlers.Permits.Ingest())
			permits.GET("", apiHandlers.Permits.List())
			permits.GET("/stats", apiHandlers.Permits.Stats())
			permits.GET("/:id", apiHandlers.Permits.Get())
			permits.PATCH("/:id/status", apiHandlers.Permits.UpdateStatus())
		}

		// Client endpoints
		clients := api.Group("/clients")
		{
			clients.POST("", apiHandlers.Clients.Create())
			clients.GET("", apiHandlers.Clients.List())
			clients.GET("/:id", apiHandlers.Clients.Get())
			clients.PUT("/:id", apiHandlers.Clients.Update())
			clients.DELETE("/:id", apiHandlers.Clients.Delete())
			clients.GET("/:id/automation-classes", apiHandlers.Clients.Classes())
		}

		// Automation class endpoints
		classes := api.Group("/automation-classes")
		{
			classes.POST("", apiHandlers.AutomationClasses.Create())
			classes.GET("", apiHandlers.AutomationClasses.List())
			classes.GET("/:id", apiHandlers.AutomationClasses.Get())
			classes.PUT("/:id", apiHandlers.AutomationClasses.Update())
			classes.DELETE("/:id", apiHandlers.AutomationClasses.Delete())
			classes.POST("/:id/activate", apiHandlers.AutomationClasses.SetStatus(enum.ClassStatusActive))
			classes.POST("/:id/deactivate", apiHandlers.AutomationClasses.SetStatus(enum.ClassStatusInactive))
		}

		// Distribution run endpoints
		runs := api.Group("/runs")
		{
			runs.POST("", apiHandlers.Runs.Trigger())
			runs.GET("/:id/leads", apiHandlers.Runs.Leads())
		}
	}
}
