package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/customeros/mailsherpa/mailvalidate"
	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/tracing"
)

// syncService polls the configured mailbox for unseen messages and feeds
// them into reply ingestion. Fetching without peek marks messages seen, so a
// message is handed to ingestion at most once.
type syncService struct {
	cfg      *config.IMAPConfig
	campaign interfaces.CampaignService
	log      logger.Logger
}

func NewInboxSyncService(cfg *config.IMAPConfig, campaign interfaces.CampaignService, log logger.Logger) interfaces.InboxSyncService {
	return &syncService{
		cfg:      cfg,
		campaign: campaign,
		log:      log,
	}
}

func (s *syncService) SyncOnce(ctx context.Context) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "inboxSyncService.SyncOnce")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if !s.cfg.Enabled {
		return 0, nil
	}

	c, err := s.connect()
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	defer c.Logout()

	if _, err := c.Select(s.cfg.Folder, false); err != nil {
		tracing.TraceErr(span, err)
		return 0, errors.Wrapf(err, "failed to select folder %s", s.cfg.Folder)
	}

	criteria := goimap.NewSearchCriteria()
	criteria.WithoutFlags = []string{goimap.SeenFlag}
	ids, err := c.Search(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, errors.Wrap(err, "unseen search failed")
	}
	span.SetTag("unseen.count", len(ids))
	if len(ids) == 0 {
		return 0, nil
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(ids...)

	section := &goimap.BodySectionName{}
	messages := make(chan *goimap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, []goimap.FetchItem{section.FetchItem(), goimap.FetchEnvelope}, messages)
	}()

	processed := 0
	for msg := range messages {
		if err := s.processMessage(ctx, msg, section); err != nil {
			// one malformed message must not stall the rest of the sync
			tracing.TraceErr(span, err)
			s.log.Errorf("Failed to process inbound message: %v", err)
			continue
		}
		processed++
	}
	if err := <-done; err != nil {
		tracing.TraceErr(span, err)
		return processed, errors.Wrap(err, "fetch failed")
	}
	return processed, nil
}

func (s *syncService) connect() (*client.Client, error) {
	serverAddr := fmt.Sprintf("%s:%d", s.cfg.Server, s.cfg.Port)
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	var c *client.Client
	var err error
	if s.cfg.TLS {
		c, err = client.DialWithDialerTLS(dialer, serverAddr, &tls.Config{ServerName: s.cfg.Server})
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", serverAddr)
	}

	c.Timeout = 30 * time.Second
	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		c.Logout()
		return nil, errors.Wrapf(err, "failed to login as %s", s.cfg.Username)
	}
	c.Timeout = 0
	return c, nil
}

func (s *syncService) processMessage(ctx context.Context, msg *goimap.Message, section *goimap.BodySectionName) error {
	fromAddress := ""
	if msg.Envelope != nil && len(msg.Envelope.From) > 0 {
		validation := mailvalidate.ValidateEmailSyntax(msg.Envelope.From[0].Address())
		if validation.IsValid {
			fromAddress = validation.CleanEmail
		}
	}
	if fromAddress == "" {
		return errors.New("message has no valid sender address")
	}

	body := msg.GetBody(section)
	if body == nil {
		return errors.New("message body section missing")
	}
	envelope, err := enmime.ReadEnvelope(body)
	if err != nil {
		return errors.Wrap(err, "failed to parse mime envelope")
	}

	text := strings.TrimSpace(envelope.Text)
	if text == "" && envelope.HTML != "" {
		text, err = htmlToPlainText(envelope.HTML)
		if err != nil {
			return errors.Wrap(err, "failed to extract text from html body")
		}
	}
	if text == "" {
		return errors.New("message has no readable body")
	}

	return s.campaign.IngestReply(ctx, fromAddress, text)
}

func htmlToPlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Each(func(i int, el *goquery.Selection) {
		el.Remove()
	})
	text := strings.TrimSpace(doc.Find("body").Text())
	text = strings.ReplaceAll(text, "\n\n", "\n")
	return text, nil
}
