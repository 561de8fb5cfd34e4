package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/interfaces"
	outflowErrors "github.com/customeros/outflow/internal/errors"
	"github.com/customeros/outflow/internal/tracing"
)

// ImportLeads ingests a lead file (CSV, TXT or JSON) uploaded as multipart
// form field "file". A JSON body with a "candidates" array works too.
func ImportLeads(importService interfaces.LeadImportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ImportLeads", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		if fileHeader, err := c.FormFile("file"); err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			defer file.Close()

			payload, err := io.ReadAll(file)
			if err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			result, err := importService.ImportFile(ctx, fileHeader.Filename, payload)
			if err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, result)
			return
		}

		var request struct {
			Candidates []dto.LeadCandidate `json:"candidates" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := importService.ImportCandidates(ctx, request.Candidates)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// ListLeads returns a page of leads, newest first
func ListLeads(leadRepository interfaces.LeadRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListLeads", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		leads, err := leadRepository.List(ctx, limit, offset)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"leads": leads, "count": len(leads)})
	}
}

// ConvertLead marks a replied lead as converted
func ConvertLead(leadService interfaces.LeadService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ConvertLead", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		leadID := c.Param("id")
		tracing.TagLead(span, leadID)

		if err := leadService.MarkConverted(ctx, leadID); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(leadErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "converted", "id": leadID})
	}
}

// CloseLead closes out a lead without conversion
func CloseLead(leadService interfaces.LeadService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "CloseLead", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		leadID := c.Param("id")
		tracing.TagLead(span, leadID)

		if err := leadService.Close(ctx, leadID); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(leadErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "closed", "id": leadID})
	}
}

// Unsubscribe opts a lead out of all future sends. Safe to call twice.
func Unsubscribe(leadService interfaces.LeadService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "Unsubscribe", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		email := c.Param("email")

		changed, err := leadService.Unsubscribe(ctx, email, "unsubscribe link")
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(leadErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "opted_out", "alreadyOptedOut": !changed})
	}
}

func leadErrorStatus(err error) int {
	switch {
	case errors.Is(err, outflowErrors.ErrLeadNotFound):
		return http.StatusNotFound
	case errors.Is(err, outflowErrors.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
