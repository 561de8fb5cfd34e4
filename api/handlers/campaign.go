package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/interfaces"
	outflowErrors "github.com/customeros/outflow/internal/errors"
	"github.com/customeros/outflow/internal/tracing"
)

// RunOutreachBatch triggers an outreach batch on demand. The cron schedule
// covers steady state; this endpoint exists for manual pushes.
func RunOutreachBatch(campaignService interfaces.CampaignService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "RunOutreachBatch", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

		sent, err := campaignService.RunOutreachBatch(ctx, limit)
		if err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, outflowErrors.ErrNoActiveTemplates) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, dto.BatchResult{Sent: sent})
	}
}

// RunFollowUpCycle triggers a follow-up pass for stale outreached leads
func RunFollowUpCycle(campaignService interfaces.CampaignService, followUpAgeHours int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "RunFollowUpCycle", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		ageHours, err := strconv.Atoi(c.DefaultQuery("olderThanHours", strconv.Itoa(followUpAgeHours)))
		if err != nil || ageHours <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "olderThanHours must be a positive integer"})
			return
		}

		sent, err := campaignService.RunFollowUpCycle(ctx, time.Duration(ageHours)*time.Hour)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, dto.BatchResult{Sent: sent})
	}
}

// SeedTemplates drafts and stores the initial outreach template pool
func SeedTemplates(campaignService interfaces.CampaignService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "SeedTemplates", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.SeedTemplatesRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		created, err := campaignService.SeedTemplates(ctx, request.Objective, request.Niche)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"created": created})
	}
}

// ListTemplates returns every stored template, active or not
func ListTemplates(templateRepository interfaces.EmailTemplateRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListTemplates", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		templates, err := templateRepository.List(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"templates": templates, "count": len(templates)})
	}
}
