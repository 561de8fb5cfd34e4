package enum

type EmailType string

const (
	EmailTypeOutreach EmailType = "outreach"
	EmailTypeFollowUp EmailType = "follow_up"
	EmailTypeReply    EmailType = "reply"
)

func (t EmailType) String() string {
	return string(t)
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

func (t Sentiment) String() string {
	return string(t)
}

type AlertSeverity string

const (
	AlertSeverityInfo    AlertSeverity = "info"
	AlertSeverityWarning AlertSeverity = "warning"
	AlertSeverityError   AlertSeverity = "error"
)

func (t AlertSeverity) String() string {
	return string(t)
}
