package interfaces

import (
	"context"

	"github.com/customeros/outflow/internal/models"
)

type OutboundMessageRepository interface {
	Create(ctx context.Context, message *models.OutboundMessage) error
	// GetLatestByLeadID returns nil, nil when the lead has no sent messages
	GetLatestByLeadID(ctx context.Context, leadID string) (*models.OutboundMessage, error)
	ListByLeadID(ctx context.Context, leadID string) ([]*models.OutboundMessage, error)
}

type InboundReplyRepository interface {
	Create(ctx context.Context, reply *models.InboundReply) error
	// GetLatestPendingByLeadID returns the most recent reply whose suggestion
	// has not been sent, or nil, nil
	GetLatestPendingByLeadID(ctx context.Context, leadID string) (*models.InboundReply, error)
	// MarkSuggestionSent flips suggested_reply_sent false->true; returns false
	// when the flag was already set
	MarkSuggestionSent(ctx context.Context, id string) (bool, error)
	ListByLeadID(ctx context.Context, leadID string) ([]*models.InboundReply, error)
}
