package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/customeros/outflow/api/handlers"
	"github.com/customeros/outflow/api/middleware"
	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/internal/repository"
	"github.com/customeros/outflow/internal/tracing"
	"github.com/customeros/outflow/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, cfg *config.Config) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	// Health check endpoint (no API key needed)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-OUTFLOW-API-KEY",
		ValidAPIKey: cfg.AppConfig.APIKey,
	})

	// API group with version
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	{
		// Lead endpoints
		leads := api.Group("/leads")
		{
			leads.POST("/import", handlers.ImportLeads(s.LeadImportService))
			leads.GET("", handlers.ListLeads(repos.LeadRepository))
			leads.POST("/:id/convert", handlers.ConvertLead(s.LeadService))
			leads.POST("/:id/close", handlers.CloseLead(s.LeadService))
		}

		// Template endpoints
		templates := api.Group("/templates")
		{
			templates.POST("/seed", handlers.SeedTemplates(s.CampaignService))
			templates.GET("", handlers.ListTemplates(repos.EmailTemplateRepository))
		}

		// Campaign endpoints
		campaign := api.Group("/campaign")
		{
			campaign.POST("/outreach", handlers.RunOutreachBatch(s.CampaignService))
			campaign.POST("/followups", handlers.RunFollowUpCycle(s.CampaignService, cfg.CampaignConfig.FollowUpAgeHours))
		}

		// Reply endpoints
		replies := api.Group("/replies")
		{
			replies.POST("/ingest", handlers.IngestReply(s.CampaignService))
			replies.POST("/:leadId/approve", handlers.ApproveSuggestedReply(s.CampaignService))
		}

		api.POST("/unsubscribe/:email", handlers.Unsubscribe(s.LeadService))

		api.GET("/metrics/dashboard", handlers.DashboardMetrics(s.CampaignService))
		api.GET("/alerts", handlers.ListAlerts(repos.AlertRepository))
	}
}
