package smtp

import (
	"context"
	"fmt"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/tracing"
)

// gateway sends over SMTP via gomail. A failed dial or refused recipient
// errors out; there is no silent drop and no retry here.
type gateway struct {
	cfg        *config.SMTPConfig
	senderName string
	log        logger.Logger
}

func NewEmailGateway(cfg *config.SMTPConfig, senderName string, log logger.Logger) interfaces.EmailGateway {
	return &gateway{
		cfg:        cfg,
		senderName: senderName,
		log:        log,
	}
}

func (g *gateway) Send(ctx context.Context, to, subject, body, sender string) (string, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "smtpGateway.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMailbox(span, sender)

	if validation := mailvalidate.ValidateEmailSyntax(to); !validation.IsValid {
		err := errors.Errorf("recipient address is not valid: %s", to)
		tracing.TraceErr(span, err)
		return "", err
	}

	validation := mailvalidate.ValidateEmailSyntax(sender)
	if !validation.IsValid {
		err := errors.Errorf("sender address is not valid: %s", sender)
		tracing.TraceErr(span, err)
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), validation.Domain)

	m := gomail.NewMessage()
	m.SetAddressHeader("From", sender, g.senderName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(g.cfg.Host, g.cfg.Port, g.cfg.Username, g.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "smtp send failed")
	}

	g.log.Infof("Sent email to %s, message id %s", to, messageID)
	return messageID, nil
}
