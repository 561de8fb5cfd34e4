package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/models"
)

type Repositories struct {
	LeadRepository            interfaces.LeadRepository
	EmailTemplateRepository   interfaces.EmailTemplateRepository
	OutboundMessageRepository interfaces.OutboundMessageRepository
	InboundReplyRepository    interfaces.InboundReplyRepository
	MailboxUsageRepository    interfaces.MailboxUsageRepository
	ModelUsageRepository      interfaces.ModelUsageRepository
	AlertRepository           interfaces.AlertRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		LeadRepository:            NewLeadRepository(db),
		EmailTemplateRepository:   NewEmailTemplateRepository(db),
		OutboundMessageRepository: NewOutboundMessageRepository(db),
		InboundReplyRepository:    NewInboundReplyRepository(db),
		MailboxUsageRepository:    NewMailboxUsageRepository(db),
		ModelUsageRepository:      NewModelUsageRepository(db),
		AlertRepository:           NewAlertRepository(db),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(5)

	err = db.AutoMigrate(
		&models.Lead{},
		&models.EmailTemplate{},
		&models.OutboundMessage{},
		&models.InboundReply{},
		&models.MailboxUsage{},
		&models.ModelUsage{},
		&models.Alert{},
	)

	sqlDB.Close()

	sqlDB, _ = db.DB()
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
