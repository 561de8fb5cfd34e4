package dto

import "github.com/customeros/outflow/internal/enum"

type BatchResult struct {
	Sent int `json:"sent"`
}

type DashboardMetrics struct {
	TotalLeads     int64   `json:"totalLeads"`
	Outreached     int64   `json:"outreached"`
	Replied        int64   `json:"replied"`
	FollowUpDue    int64   `json:"followUpDue"`
	OptedOut       int64   `json:"optedOut"`
	ConversionRate float64 `json:"conversionRate"`
	TemplatesTotal int64   `json:"templatesTotal"`
}

type IngestReplyRequest struct {
	Email   string `json:"email" binding:"required"`
	RawBody string `json:"rawBody" binding:"required"`
}

type SeedTemplatesRequest struct {
	Objective string `json:"objective" binding:"required"`
	Niche     string `json:"niche"`
}

type ReplySuggestion struct {
	LeadID    string         `json:"leadId"`
	Sentiment enum.Sentiment `json:"sentiment"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
}
