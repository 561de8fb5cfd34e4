package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/interfaces"
	outflowErrors "github.com/customeros/outflow/internal/errors"
	"github.com/customeros/outflow/internal/tracing"
)

// IngestReply feeds one inbound reply into classification and suggestion.
// Normally the IMAP sync does this; the endpoint covers webhook-style feeds.
func IngestReply(campaignService interfaces.CampaignService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "IngestReply", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.IngestReplyRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := campaignService.IngestReply(ctx, request.Email, request.RawBody); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "ingested"})
	}
}

// ApproveSuggestedReply sends the pending suggested reply for a lead
func ApproveSuggestedReply(campaignService interfaces.CampaignService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ApproveSuggestedReply", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		leadID := c.Param("leadId")
		tracing.TagLead(span, leadID)

		sent, err := campaignService.ApproveAndSendSuggestedReply(ctx, leadID)
		if err != nil {
			tracing.TraceErr(span, err)
			switch {
			case errors.Is(err, outflowErrors.ErrLeadNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case errors.Is(err, outflowErrors.ErrCapacityExceeded):
				c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		if !sent {
			c.JSON(http.StatusConflict, gin.H{"error": outflowErrors.ErrNoPendingSuggestion.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "sent", "leadId": leadID})
	}
}
