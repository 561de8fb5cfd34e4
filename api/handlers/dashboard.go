package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/tracing"
)

// DashboardMetrics returns the campaign funnel counters
func DashboardMetrics(campaignService interfaces.CampaignService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "DashboardMetrics", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		metrics, err := campaignService.Metrics(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, metrics)
	}
}

// ListAlerts returns recent alerts, newest first
func ListAlerts(alertRepository interfaces.AlertRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListAlerts", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

		alerts, err := alertRepository.List(ctx, limit)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
	}
}
