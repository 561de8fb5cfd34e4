package dto

import "time"

// Event payloads published to the outflow-direct exchange.

type EmailSentEvent struct {
	LeadID            string    `json:"leadId"`
	EmailType         string    `json:"emailType"`
	Mailbox           string    `json:"mailbox"`
	ExternalMessageID string    `json:"externalMessageId"`
	SentAt            time.Time `json:"sentAt"`
}

type ReplyReceivedEvent struct {
	LeadID     string    `json:"leadId"`
	Sentiment  string    `json:"sentiment"`
	ReceivedAt time.Time `json:"receivedAt"`
}

type LeadOptedOutEvent struct {
	LeadID   string    `json:"leadId"`
	Email    string    `json:"email"`
	Reason   string    `json:"reason"`
	OptedOut time.Time `json:"optedOut"`
}
