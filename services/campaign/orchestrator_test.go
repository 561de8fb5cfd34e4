package campaign

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/enum"
	outflowErrors "github.com/customeros/outflow/internal/errors"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/utils"
	"github.com/customeros/outflow/services/leads"
	"github.com/customeros/outflow/services/ratelimit"
	"github.com/customeros/outflow/services/replies"
	"github.com/customeros/outflow/services/template"
)

// slice-backed fakes keep lead-fetch order deterministic, which the template
// cycling assertions rely on

type leadRepoFake struct {
	leads []*models.Lead
}

func (f *leadRepoFake) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = utils.GenerateNanoIDWithPrefix("lead", 16)
	}
	f.leads = append(f.leads, lead)
	return nil
}

func (f *leadRepoFake) Save(ctx context.Context, lead *models.Lead) error {
	return nil
}

func (f *leadRepoFake) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	for _, lead := range f.leads {
		if lead.ID == id {
			return lead, nil
		}
	}
	return nil, nil
}

func (f *leadRepoFake) GetByEmail(ctx context.Context, email string) (*models.Lead, error) {
	for _, lead := range f.leads {
		if lead.Email == email {
			return lead, nil
		}
	}
	return nil, nil
}

func (f *leadRepoFake) GetEligible(ctx context.Context, statuses []enum.LeadStatus, lastContactBefore *time.Time, limit int) ([]*models.Lead, error) {
	var out []*models.Lead
	for _, lead := range f.leads {
		if lead.OptedOut {
			continue
		}
		matched := false
		for _, status := range statuses {
			if lead.Status == status {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if lastContactBefore != nil {
			if lead.LastContactedAt == nil || !lead.LastContactedAt.Before(*lastContactBefore) {
				continue
			}
		}
		out = append(out, lead)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *leadRepoFake) List(ctx context.Context, limit, offset int) ([]*models.Lead, error) {
	return f.leads, nil
}

func (f *leadRepoFake) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.leads)), nil
}

func (f *leadRepoFake) CountByStatus(ctx context.Context, status enum.LeadStatus) (int64, error) {
	var n int64
	for _, lead := range f.leads {
		if lead.Status == status {
			n++
		}
	}
	return n, nil
}

type templateRepoFake struct {
	templates []*models.EmailTemplate
}

func (f *templateRepoFake) Create(ctx context.Context, tmpl *models.EmailTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = utils.GenerateNanoIDWithPrefix("tmpl", 16)
	}
	f.templates = append(f.templates, tmpl)
	return nil
}

func (f *templateRepoFake) GetByID(ctx context.Context, id string) (*models.EmailTemplate, error) {
	for _, tmpl := range f.templates {
		if tmpl.ID == id {
			return tmpl, nil
		}
	}
	return nil, nil
}

func (f *templateRepoFake) GetActiveByType(ctx context.Context, emailType enum.EmailType) ([]*models.EmailTemplate, error) {
	var out []*models.EmailTemplate
	for _, tmpl := range f.templates {
		if tmpl.IsActive && tmpl.EmailType == emailType {
			out = append(out, tmpl)
		}
	}
	return out, nil
}

func (f *templateRepoFake) IncrementUsage(ctx context.Context, id string) error {
	for _, tmpl := range f.templates {
		if tmpl.ID == id {
			tmpl.UsageCount++
		}
	}
	return nil
}

func (f *templateRepoFake) Deactivate(ctx context.Context, id string) error {
	for _, tmpl := range f.templates {
		if tmpl.ID == id {
			tmpl.IsActive = false
		}
	}
	return nil
}

func (f *templateRepoFake) List(ctx context.Context) ([]*models.EmailTemplate, error) {
	return f.templates, nil
}

func (f *templateRepoFake) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.templates)), nil
}

type messageRepoFake struct {
	messages []*models.OutboundMessage
}

func (f *messageRepoFake) Create(ctx context.Context, message *models.OutboundMessage) error {
	if message.ID == "" {
		message.ID = utils.GenerateNanoIDWithPrefix("msg", 16)
	}
	if message.SentAt.IsZero() {
		message.SentAt = utils.Now()
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *messageRepoFake) GetLatestByLeadID(ctx context.Context, leadID string) (*models.OutboundMessage, error) {
	var latest *models.OutboundMessage
	for _, message := range f.messages {
		if message.LeadID == leadID {
			latest = message
		}
	}
	return latest, nil
}

func (f *messageRepoFake) ListByLeadID(ctx context.Context, leadID string) ([]*models.OutboundMessage, error) {
	var out []*models.OutboundMessage
	for _, message := range f.messages {
		if message.LeadID == leadID {
			out = append(out, message)
		}
	}
	return out, nil
}

type replyRepoFake struct {
	replies []*models.InboundReply
}

func (f *replyRepoFake) Create(ctx context.Context, reply *models.InboundReply) error {
	if reply.ID == "" {
		reply.ID = utils.GenerateNanoIDWithPrefix("rply", 16)
	}
	f.replies = append(f.replies, reply)
	return nil
}

func (f *replyRepoFake) GetLatestPendingByLeadID(ctx context.Context, leadID string) (*models.InboundReply, error) {
	var latest *models.InboundReply
	for _, reply := range f.replies {
		if reply.LeadID == leadID && !reply.SuggestedReplySent {
			latest = reply
		}
	}
	return latest, nil
}

func (f *replyRepoFake) MarkSuggestionSent(ctx context.Context, id string) (bool, error) {
	for _, reply := range f.replies {
		if reply.ID == id {
			if reply.SuggestedReplySent {
				return false, nil
			}
			reply.SuggestedReplySent = true
			return true, nil
		}
	}
	return false, nil
}

func (f *replyRepoFake) ListByLeadID(ctx context.Context, leadID string) ([]*models.InboundReply, error) {
	var out []*models.InboundReply
	for _, reply := range f.replies {
		if reply.LeadID == leadID {
			out = append(out, reply)
		}
	}
	return out, nil
}

type alertRepoFake struct {
	alerts []*models.Alert
}

func (f *alertRepoFake) Create(ctx context.Context, alert *models.Alert) error {
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *alertRepoFake) List(ctx context.Context, limit int) ([]*models.Alert, error) {
	return f.alerts, nil
}

func (f *alertRepoFake) countSeverity(severity enum.AlertSeverity) int {
	n := 0
	for _, alert := range f.alerts {
		if alert.Severity == severity {
			n++
		}
	}
	return n
}

type mailboxUsageFake struct {
	counts map[string]int
}

func (f *mailboxUsageFake) GetCountSent(ctx context.Context, mailbox, day string) (int, error) {
	return f.counts[mailbox+"|"+day], nil
}

func (f *mailboxUsageFake) IncrementSent(ctx context.Context, mailbox, day string) error {
	f.counts[mailbox+"|"+day]++
	return nil
}

type gatewayFake struct {
	sent    []sentEmail
	failFor map[string]bool
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

func (f *gatewayFake) Send(ctx context.Context, to, subject, body, sender string) (string, error) {
	if f.failFor[to] {
		return "", fmt.Errorf("smtp refused %s", to)
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: body})
	return fmt.Sprintf("ext-%d", len(f.sent)), nil
}

type generationFake struct {
	output string
	fail   bool
}

func (f *generationFake) OrderedTargets(ctx context.Context, critical bool) ([]config.ModelTarget, error) {
	return nil, nil
}

func (f *generationFake) Generate(ctx context.Context, request dto.GenerationRequest) (string, error) {
	if f.fail {
		return "", &outflowErrors.ProvidersExhaustedError{}
	}
	return f.output, nil
}

type harness struct {
	svc       interfaces.CampaignService
	cfg       *config.CampaignConfig
	leadRepo  *leadRepoFake
	tmplRepo  *templateRepoFake
	msgRepo   *messageRepoFake
	replyRepo *replyRepoFake
	alertRepo *alertRepoFake
	gateway   *gatewayFake
	gen       *generationFake
}

func newHarness(dailyLimit int) *harness {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()

	cfg := &config.CampaignConfig{
		SenderEmail:        "sales@acme.com",
		SenderName:         "Acme Sales",
		Objective:          "pipeline growth",
		DailySendLimit:     dailyLimit,
		OutreachBatchLimit: 20,
		FollowUpBatchLimit: 20,
		FollowUpAgeHours:   72,
		UnsubscribeBaseURL: "https://acme.test/unsubscribe",
	}

	leadRepo := &leadRepoFake{}
	tmplRepo := &templateRepoFake{}
	msgRepo := &messageRepoFake{}
	replyRepo := &replyRepoFake{}
	alertRepo := &alertRepoFake{}
	gateway := &gatewayFake{failFor: map[string]bool{}}
	gen := &generationFake{output: "Hi {{name}}, checking back in.\n\nBest,\n{{sender_name}}\n\nUnsubscribe: {{unsubscribe_link}}"}

	limiter := ratelimit.NewRateLimiterService(dailyLimit, &mailboxUsageFake{counts: map[string]int{}}, log)
	leadService := leads.NewLeadService(leadRepo, alertRepo, nil, log)
	responder := replies.NewResponder(gen, alertRepo, cfg.Objective, log)
	seeder := template.NewSeeder(gen, tmplRepo, log)

	svc := NewCampaignService(cfg, leadRepo, tmplRepo, msgRepo, replyRepo, alertRepo,
		leadService, limiter, gen, responder, gateway, seeder, nil, log)

	return &harness{
		svc:       svc,
		cfg:       cfg,
		leadRepo:  leadRepo,
		tmplRepo:  tmplRepo,
		msgRepo:   msgRepo,
		replyRepo: replyRepo,
		alertRepo: alertRepo,
		gateway:   gateway,
		gen:       gen,
	}
}

func (h *harness) addLead(email string, status enum.LeadStatus) *models.Lead {
	lead := &models.Lead{
		Name:   "Lead " + email,
		Email:  email,
		Status: status,
	}
	_ = h.leadRepo.Create(context.Background(), lead)
	return lead
}

func (h *harness) addTemplate(id string, usage int) *models.EmailTemplate {
	tmpl := &models.EmailTemplate{
		ID:              id,
		Name:            id,
		EmailType:       enum.EmailTypeOutreach,
		SubjectTemplate: "Hello {{name}}",
		BodyTemplate:    "Hi {{name}} from {{sender_name}}, unsubscribe: {{unsubscribe_link}}",
		UsageCount:      usage,
		IsActive:        true,
	}
	_ = h.tmplRepo.Create(context.Background(), tmpl)
	return tmpl
}

func TestRunOutreachBatch_NoActiveTemplates(t *testing.T) {
	h := newHarness(80)
	h.addLead("a@example.com", enum.LeadStatusNew)

	sent, err := h.svc.RunOutreachBatch(context.Background(), 10)

	assert.ErrorIs(t, err, outflowErrors.ErrNoActiveTemplates)
	assert.Zero(t, sent)
	assert.Empty(t, h.gateway.sent)
}

func TestRunOutreachBatch_SendsAndTransitions(t *testing.T) {
	h := newHarness(80)
	h.addTemplate("tmpl_a", 0)
	lead := h.addLead("ada@example.com", enum.LeadStatusNew)

	sent, err := h.svc.RunOutreachBatch(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, h.gateway.sent, 1)
	assert.Equal(t, "Hello Lead ada@example.com", h.gateway.sent[0].subject)
	assert.Contains(t, h.gateway.sent[0].body, "Acme Sales")
	assert.Contains(t, h.gateway.sent[0].body, "https://acme.test/unsubscribe/ada@example.com")

	assert.Equal(t, enum.LeadStatusOutreached, lead.Status)
	assert.NotNil(t, lead.LastContactedAt)
	require.Len(t, h.msgRepo.messages, 1)
	assert.Equal(t, enum.EmailTypeOutreach, h.msgRepo.messages[0].EmailType)
	assert.Equal(t, 1, h.tmplRepo.templates[0].UsageCount)
}

func TestRunOutreachBatch_HaltsOnCapacityWithAlert(t *testing.T) {
	h := newHarness(2)
	h.addTemplate("tmpl_a", 0)
	h.addLead("a@example.com", enum.LeadStatusNew)
	h.addLead("b@example.com", enum.LeadStatusNew)
	h.addLead("c@example.com", enum.LeadStatusNew)

	sent, err := h.svc.RunOutreachBatch(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, h.gateway.sent, 2)
	assert.Equal(t, 1, h.alertRepo.countSeverity(enum.AlertSeverityWarning))
}

func TestRunOutreachBatch_CyclesTemplatesEvenly(t *testing.T) {
	h := newHarness(80)
	h.addTemplate("tmpl_a", 0)
	h.addTemplate("tmpl_b", 0)
	for i := 0; i < 4; i++ {
		h.addLead(fmt.Sprintf("lead%d@example.com", i), enum.LeadStatusNew)
	}

	sent, err := h.svc.RunOutreachBatch(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 4, sent)
	assert.Equal(t, 2, h.tmplRepo.templates[0].UsageCount)
	assert.Equal(t, 2, h.tmplRepo.templates[1].UsageCount)
}

func TestRunOutreachBatch_GatewayFailureSkipsLeadOnly(t *testing.T) {
	h := newHarness(80)
	h.addTemplate("tmpl_a", 0)
	broken := h.addLead("broken@example.com", enum.LeadStatusNew)
	fine := h.addLead("fine@example.com", enum.LeadStatusNew)
	h.gateway.failFor["broken@example.com"] = true

	sent, err := h.svc.RunOutreachBatch(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	// the failed lead is untouched and stays eligible
	assert.Equal(t, enum.LeadStatusNew, broken.Status)
	assert.Equal(t, enum.LeadStatusOutreached, fine.Status)
}

func TestRunOutreachBatch_SkipsOptedOutLeads(t *testing.T) {
	h := newHarness(80)
	h.addTemplate("tmpl_a", 0)
	optedOut := h.addLead("gone@example.com", enum.LeadStatusNew)
	optedOut.OptedOut = true
	h.addLead("here@example.com", enum.LeadStatusNew)

	sent, err := h.svc.RunOutreachBatch(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, "here@example.com", h.gateway.sent[0].to)
}

func TestRunFollowUpCycle_SendsToStaleLeads(t *testing.T) {
	h := newHarness(80)
	lead := h.addLead("stale@example.com", enum.LeadStatusOutreached)
	old := utils.Now().Add(-100 * time.Hour)
	lead.LastContactedAt = &old
	_ = h.msgRepo.Create(context.Background(), &models.OutboundMessage{
		LeadID: lead.ID, EmailType: enum.EmailTypeOutreach, Subject: "Hello", Body: "original",
	})

	sent, err := h.svc.RunFollowUpCycle(context.Background(), 72*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, enum.LeadStatusFollowUpDue, lead.Status)
	require.Len(t, h.gateway.sent, 1)
	assert.Contains(t, h.gateway.sent[0].subject, "Following up on")
	assert.Contains(t, h.gateway.sent[0].body, "Lead stale@example.com")
}

func TestRunFollowUpCycle_SkipsLeadWithoutPriorMessage(t *testing.T) {
	h := newHarness(80)
	lead := h.addLead("nohistory@example.com", enum.LeadStatusOutreached)
	old := utils.Now().Add(-100 * time.Hour)
	lead.LastContactedAt = &old

	sent, err := h.svc.RunFollowUpCycle(context.Background(), 72*time.Hour)

	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, h.gateway.sent)
}

func TestRunFollowUpCycle_RecentLeadsNotTouched(t *testing.T) {
	h := newHarness(80)
	lead := h.addLead("fresh@example.com", enum.LeadStatusOutreached)
	recent := utils.Now().Add(-1 * time.Hour)
	lead.LastContactedAt = &recent
	_ = h.msgRepo.Create(context.Background(), &models.OutboundMessage{
		LeadID: lead.ID, EmailType: enum.EmailTypeOutreach, Subject: "Hello", Body: "original",
	})

	sent, err := h.svc.RunFollowUpCycle(context.Background(), 72*time.Hour)

	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRunFollowUpCycle_ProviderExhaustionAlertsAndContinues(t *testing.T) {
	h := newHarness(80)
	h.gen.fail = true
	lead := h.addLead("stale@example.com", enum.LeadStatusOutreached)
	old := utils.Now().Add(-100 * time.Hour)
	lead.LastContactedAt = &old
	_ = h.msgRepo.Create(context.Background(), &models.OutboundMessage{
		LeadID: lead.ID, EmailType: enum.EmailTypeOutreach, Subject: "Hello", Body: "original",
	})

	sent, err := h.svc.RunFollowUpCycle(context.Background(), 72*time.Hour)

	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, 1, h.alertRepo.countSeverity(enum.AlertSeverityError))
	assert.Equal(t, enum.LeadStatusOutreached, lead.Status)
}

func TestIngestReply_UnknownSenderAlertsWithoutFailing(t *testing.T) {
	h := newHarness(80)

	err := h.svc.IngestReply(context.Background(), "stranger@example.com", "who is this?")

	require.NoError(t, err)
	assert.Equal(t, 1, h.alertRepo.countSeverity(enum.AlertSeverityWarning))
	assert.Empty(t, h.replyRepo.replies)
}

func TestIngestReply_PersistsSuggestionAndTransitions(t *testing.T) {
	h := newHarness(80)
	lead := h.addLead("ada@example.com", enum.LeadStatusOutreached)

	err := h.svc.IngestReply(context.Background(), "ADA@example.com", "yes, let's schedule a call")

	require.NoError(t, err)
	require.Len(t, h.replyRepo.replies, 1)
	reply := h.replyRepo.replies[0]
	assert.Equal(t, enum.SentimentPositive, reply.Sentiment)
	assert.NotEmpty(t, reply.SuggestedReplySubject)
	assert.NotEmpty(t, reply.SuggestedReplyBody)
	assert.False(t, reply.SuggestedReplySent)
	assert.Equal(t, enum.LeadStatusReplied, lead.Status)
	// no auto-send by default
	assert.Empty(t, h.gateway.sent)
	// every ingested reply leaves an operator-visible trace
	assert.Equal(t, 1, h.alertRepo.countSeverity(enum.AlertSeverityInfo))
}

func TestIngestReply_AbortsWhenProvidersExhausted(t *testing.T) {
	h := newHarness(80)
	lead := h.addLead("ada@example.com", enum.LeadStatusOutreached)
	h.gen.fail = true

	err := h.svc.IngestReply(context.Background(), "ada@example.com", "yes, interested")

	require.Error(t, err)
	assert.True(t, outflowErrors.IsProvidersExhausted(err))
	assert.Empty(t, h.replyRepo.replies)
	assert.Equal(t, enum.LeadStatusOutreached, lead.Status)
	assert.Equal(t, 1, h.alertRepo.countSeverity(enum.AlertSeverityError))
}

func TestIngestReply_NegativeOptsOut(t *testing.T) {
	h := newHarness(80)
	lead := h.addLead("ada@example.com", enum.LeadStatusOutreached)

	err := h.svc.IngestReply(context.Background(), "ada@example.com", "please unsubscribe me")

	require.NoError(t, err)
	assert.Equal(t, enum.LeadStatusOptedOut, lead.Status)
	assert.True(t, lead.OptedOut)
}

func TestIngestReply_AutoSendWhenPolicyAllows(t *testing.T) {
	h := newHarness(80)
	h.cfg.AutoSendPositive = true
	h.addLead("ada@example.com", enum.LeadStatusOutreached)

	err := h.svc.IngestReply(context.Background(), "ada@example.com", "interested, tell me more")

	require.NoError(t, err)
	require.Len(t, h.gateway.sent, 1)
	assert.True(t, h.replyRepo.replies[0].SuggestedReplySent)
}

func TestApproveAndSend_NoPendingSuggestion(t *testing.T) {
	h := newHarness(80)
	lead := h.addLead("ada@example.com", enum.LeadStatusReplied)

	sent, err := h.svc.ApproveAndSendSuggestedReply(context.Background(), lead.ID)

	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, h.gateway.sent)
}

func TestApproveAndSend_ExactlyOnce(t *testing.T) {
	h := newHarness(80)
	lead := h.addLead("ada@example.com", enum.LeadStatusOutreached)
	require.NoError(t, h.svc.IngestReply(context.Background(), "ada@example.com", "yes please"))

	first, err := h.svc.ApproveAndSendSuggestedReply(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := h.svc.ApproveAndSendSuggestedReply(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.False(t, second)

	require.Len(t, h.gateway.sent, 1)
	require.Len(t, h.msgRepo.messages, 1)
	assert.Equal(t, enum.EmailTypeReply, h.msgRepo.messages[0].EmailType)
	assert.Nil(t, h.msgRepo.messages[0].TemplateID)
}

func TestApproveAndSend_SuggestionSurvivesGatewayFailure(t *testing.T) {
	h := newHarness(80)
	lead := h.addLead("ada@example.com", enum.LeadStatusOutreached)
	require.NoError(t, h.svc.IngestReply(context.Background(), "ada@example.com", "yes please"))

	h.gateway.failFor["ada@example.com"] = true
	sent, err := h.svc.ApproveAndSendSuggestedReply(context.Background(), lead.ID)
	require.Error(t, err)
	assert.False(t, sent)
	assert.Empty(t, h.gateway.sent)
	assert.Empty(t, h.msgRepo.messages)
	assert.False(t, h.replyRepo.replies[0].SuggestedReplySent)

	h.gateway.failFor["ada@example.com"] = false
	sent, err = h.svc.ApproveAndSendSuggestedReply(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, h.gateway.sent, 1)
	require.Len(t, h.msgRepo.messages, 1)
	assert.True(t, h.replyRepo.replies[0].SuggestedReplySent)
}

func TestApproveAndSend_UnknownLead(t *testing.T) {
	h := newHarness(80)

	_, err := h.svc.ApproveAndSendSuggestedReply(context.Background(), "lead_missing")

	assert.ErrorIs(t, err, outflowErrors.ErrLeadNotFound)
}

func TestSeedTemplates_DefaultsObjective(t *testing.T) {
	h := newHarness(80)

	created, err := h.svc.SeedTemplates(context.Background(), "", "fintech")

	require.NoError(t, err)
	assert.Equal(t, 3, created)
	pool, _ := h.tmplRepo.GetActiveByType(context.Background(), enum.EmailTypeOutreach)
	assert.Len(t, pool, 3)
}

func TestSeedTemplates_ExhaustionAbortsWithAlert(t *testing.T) {
	h := newHarness(80)
	h.gen.fail = true

	created, err := h.svc.SeedTemplates(context.Background(), "pipeline growth", "fintech")

	require.Error(t, err)
	assert.True(t, outflowErrors.IsProvidersExhausted(err))
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, h.alertRepo.countSeverity(enum.AlertSeverityError))
}

func TestMetrics(t *testing.T) {
	h := newHarness(80)
	h.addLead("a@example.com", enum.LeadStatusOutreached)
	h.addLead("b@example.com", enum.LeadStatusOutreached)
	h.addLead("c@example.com", enum.LeadStatusReplied)
	h.addLead("d@example.com", enum.LeadStatusOptedOut)
	h.addTemplate("tmpl_a", 0)

	metrics, err := h.svc.Metrics(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(4), metrics.TotalLeads)
	assert.Equal(t, int64(2), metrics.Outreached)
	assert.Equal(t, int64(1), metrics.Replied)
	assert.Equal(t, int64(1), metrics.OptedOut)
	assert.Equal(t, int64(1), metrics.TemplatesTotal)
	assert.Equal(t, 50.0, metrics.ConversionRate)
}
