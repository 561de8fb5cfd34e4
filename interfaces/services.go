package interfaces

import (
	"context"
	"time"

	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/models"
)

// EmailGateway dispatches a single email and returns the opaque message id
// assigned by the transport. A failed send errors, it never silently drops.
type EmailGateway interface {
	Send(ctx context.Context, to, subject, body, sender string) (string, error)
}

// GenerationProvider executes one generation call against one target.
type GenerationProvider interface {
	Call(ctx context.Context, target config.ModelTarget, request dto.GenerationRequest) (string, error)
}

// GenerationService routes generation requests across configured targets with
// failover and premium-capacity reservation.
type GenerationService interface {
	OrderedTargets(ctx context.Context, critical bool) ([]config.ModelTarget, error)
	Generate(ctx context.Context, request dto.GenerationRequest) (string, error)
}

type RateLimiterService interface {
	CapacityRemaining(ctx context.Context, mailbox, day string) (int, error)
	// CheckCapacity returns ErrCapacityExceeded when the mailbox is out of
	// budget for the current day
	CheckCapacity(ctx context.Context, mailbox string) error
	// RegisterSend is called only after the gateway confirmed the send
	RegisterSend(ctx context.Context, mailbox string) error
}

type LeadService interface {
	Admit(ctx context.Context, candidate dto.LeadCandidate) (enum.AdmissionResult, error)
	MarkOutreached(ctx context.Context, lead *models.Lead) error
	MarkFollowUpSent(ctx context.Context, lead *models.Lead) error
	RecordReply(ctx context.Context, lead *models.Lead, sentiment enum.Sentiment) error
	// Unsubscribe is idempotent; returns false when the lead was already opted out
	Unsubscribe(ctx context.Context, email, reason string) (bool, error)
	MarkConverted(ctx context.Context, leadID string) error
	Close(ctx context.Context, leadID string) error
}

// ReplyResponder classifies an inbound reply and drafts a suggested answer.
// Provider exhaustion aborts the draft with a ProvidersExhaustedError after
// recording an alert; the caller decides how to resume.
type ReplyResponder interface {
	Respond(ctx context.Context, lead *models.Lead, replyText, priorOutreachText string) (*dto.ReplySuggestion, error)
}

type CampaignService interface {
	SeedTemplates(ctx context.Context, objective, niche string) (int, error)
	RunOutreachBatch(ctx context.Context, limit int) (int, error)
	RunFollowUpCycle(ctx context.Context, olderThan time.Duration) (int, error)
	IngestReply(ctx context.Context, fromEmail, rawBody string) error
	ApproveAndSendSuggestedReply(ctx context.Context, leadID string) (bool, error)
	Metrics(ctx context.Context) (*dto.DashboardMetrics, error)
}

type LeadImportService interface {
	ImportFile(ctx context.Context, filename string, payload []byte) (*dto.LeadImportResult, error)
	ImportCandidates(ctx context.Context, candidates []dto.LeadCandidate) (*dto.LeadImportResult, error)
}

type InboxSyncService interface {
	// SyncOnce fetches unseen inbound messages and feeds them to reply
	// ingestion; returns the number of messages processed
	SyncOnce(ctx context.Context) (int, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close()
}
