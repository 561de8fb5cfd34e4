package config

import (
	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/tracing"
)

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *DatabaseConfig
	CampaignConfig *CampaignConfig
	ModelsConfig   *ModelsConfig
	SMTPConfig     *SMTPConfig
	IMAPConfig     *IMAPConfig
}

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"11000"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

type DatabaseConfig struct {
	Host            string `env:"POSTGRES_HOST,required"`
	Port            string `env:"POSTGRES_PORT,required"`
	User            string `env:"POSTGRES_USER,required"`
	DBName          string `env:"POSTGRES_DB_NAME,required"`
	Password        string `env:"POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"POSTGRES_DB_MAX_CONN" envDefault:"50"`
	MaxIdleConn     int    `env:"POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
}

// CampaignConfig is read-only process-wide state, constructed once at startup
// and passed into the orchestrator by reference.
type CampaignConfig struct {
	SenderEmail        string `env:"SENDER_EMAIL,required"`
	SenderName         string `env:"SENDER_NAME" envDefault:"Outflow Team"`
	Objective          string `env:"CAMPAIGN_OBJECTIVE" envDefault:"pipeline growth"`
	DailySendLimit     int    `env:"DAILY_SEND_LIMIT_PER_MAILBOX" envDefault:"80"`
	OutreachBatchLimit int    `env:"OUTREACH_BATCH_LIMIT" envDefault:"20"`
	FollowUpBatchLimit int    `env:"FOLLOW_UP_BATCH_LIMIT" envDefault:"20"`
	FollowUpAgeHours   int    `env:"FOLLOW_UP_AGE_HOURS" envDefault:"72"`
	UnsubscribeBaseURL string `env:"UNSUBSCRIBE_BASE_URL" envDefault:"https://outflow.local/unsubscribe"`

	// Per-sentiment auto-send policy for suggested replies. All default to
	// false: suggestions require explicit approval.
	AutoSendPositive bool `env:"AUTO_SEND_POSITIVE_REPLIES" envDefault:"false"`
	AutoSendNeutral  bool `env:"AUTO_SEND_NEUTRAL_REPLIES" envDefault:"false"`
	AutoSendNegative bool `env:"AUTO_SEND_NEGATIVE_REPLIES" envDefault:"false"`
}

func (c *CampaignConfig) AutoSendAllowed(sentiment enum.Sentiment) bool {
	switch sentiment {
	case enum.SentimentPositive:
		return c.AutoSendPositive
	case enum.SentimentNeutral:
		return c.AutoSendNeutral
	case enum.SentimentNegative:
		return c.AutoSendNegative
	}
	return false
}

// ModelTarget is a static generation target. Only aggregate usage counters
// are persisted per target, never the target itself.
type ModelTarget struct {
	Provider   string         `json:"provider"`
	Model      string         `json:"model"`
	APIKey     string         `json:"api_key"`
	Priority   int            `json:"priority"`
	Tier       enum.ModelTier `json:"tier"`
	DailyQuota int            `json:"daily_quota"`
}

func (t ModelTarget) Key() string {
	return t.Provider + ":" + t.Model
}

type ModelsConfig struct {
	// JSON array of targets, sorted by priority after parsing
	TargetsRaw     string `env:"MODEL_TARGETS" envDefault:"[{\"provider\":\"gemini\",\"model\":\"gemini-2.5-flash\",\"api_key\":\"\",\"priority\":1,\"tier\":\"premium\",\"daily_quota\":250},{\"provider\":\"gemini\",\"model\":\"gemini-2.5-flash-lite\",\"api_key\":\"\",\"priority\":2,\"tier\":\"standard\",\"daily_quota\":400}]"`
	PremiumReserve int    `env:"PREMIUM_RESERVE_REQUESTS" envDefault:"60"`

	Targets []ModelTarget `env:"-"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
}

type IMAPConfig struct {
	Enabled  bool   `env:"IMAP_ENABLED" envDefault:"false"`
	Server   string `env:"IMAP_SERVER"`
	Port     int    `env:"IMAP_PORT" envDefault:"993"`
	Username string `env:"IMAP_USERNAME"`
	Password string `env:"IMAP_PASSWORD"`
	TLS      bool   `env:"IMAP_TLS" envDefault:"true"`
	Folder   string `env:"IMAP_FOLDER" envDefault:"INBOX"`
}
