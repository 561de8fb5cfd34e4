package services

import (
	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/repository"
	"github.com/customeros/outflow/services/campaign"
	"github.com/customeros/outflow/services/events"
	"github.com/customeros/outflow/services/generation"
	"github.com/customeros/outflow/services/imap"
	"github.com/customeros/outflow/services/importer"
	"github.com/customeros/outflow/services/leads"
	"github.com/customeros/outflow/services/ratelimit"
	"github.com/customeros/outflow/services/replies"
	"github.com/customeros/outflow/services/smtp"
	"github.com/customeros/outflow/services/template"
)

type Services struct {
	EventPublisher    interfaces.EventPublisher
	GenerationService interfaces.GenerationService
	RateLimiter       interfaces.RateLimiterService
	LeadService       interfaces.LeadService
	LeadImportService interfaces.LeadImportService
	EmailGateway      interfaces.EmailGateway
	Responder         interfaces.ReplyResponder
	CampaignService   interfaces.CampaignService
	InboxSyncService  interfaces.InboxSyncService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	var publisher interfaces.EventPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		var err error
		publisher, err = events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn("RabbitMQ URL not configured, campaign events will not be published")
	}

	generationService := generation.NewGenerationService(
		cfg.ModelsConfig,
		generation.NewGeminiProvider(),
		repos.ModelUsageRepository,
		log,
	)

	rateLimiter := ratelimit.NewRateLimiterService(
		cfg.CampaignConfig.DailySendLimit,
		repos.MailboxUsageRepository,
		log,
	)

	leadService := leads.NewLeadService(
		repos.LeadRepository,
		repos.AlertRepository,
		publisher,
		log,
	)

	gateway := smtp.NewEmailGateway(cfg.SMTPConfig, cfg.CampaignConfig.SenderName, log)

	responder := replies.NewResponder(
		generationService,
		repos.AlertRepository,
		cfg.CampaignConfig.Objective,
		log,
	)

	seeder := template.NewSeeder(generationService, repos.EmailTemplateRepository, log)

	campaignService := campaign.NewCampaignService(
		cfg.CampaignConfig,
		repos.LeadRepository,
		repos.EmailTemplateRepository,
		repos.OutboundMessageRepository,
		repos.InboundReplyRepository,
		repos.AlertRepository,
		leadService,
		rateLimiter,
		generationService,
		responder,
		gateway,
		seeder,
		publisher,
		log,
	)

	return &Services{
		EventPublisher:    publisher,
		GenerationService: generationService,
		RateLimiter:       rateLimiter,
		LeadService:       leadService,
		LeadImportService: importer.NewLeadImportService(leadService, log),
		EmailGateway:      gateway,
		Responder:         responder,
		CampaignService:   campaignService,
		InboxSyncService:  imap.NewInboxSyncService(cfg.IMAPConfig, campaignService, log),
	}, nil
}
