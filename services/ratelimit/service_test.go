package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	outflowErrors "github.com/customeros/outflow/internal/errors"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/utils"
)

type mailboxUsageStub struct {
	counts map[string]int
}

func (s *mailboxUsageStub) key(mailbox, day string) string {
	return mailbox + "|" + day
}

func (s *mailboxUsageStub) GetCountSent(ctx context.Context, mailbox, day string) (int, error) {
	return s.counts[s.key(mailbox, day)], nil
}

func (s *mailboxUsageStub) IncrementSent(ctx context.Context, mailbox, day string) error {
	s.counts[s.key(mailbox, day)]++
	return nil
}

func newTestService(limit int, counts map[string]int) (*rateLimiterService, *mailboxUsageStub) {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()
	stub := &mailboxUsageStub{counts: counts}
	return NewRateLimiterService(limit, stub, log).(*rateLimiterService), stub
}

func TestCapacityRemaining_NoUsageRow(t *testing.T) {
	svc, _ := newTestService(80, map[string]int{})

	remaining, err := svc.CapacityRemaining(context.Background(), "sales@acme.com", "2026-09-01")

	require.NoError(t, err)
	assert.Equal(t, 80, remaining)
}

func TestCapacityRemaining_NeverNegative(t *testing.T) {
	svc, stub := newTestService(80, map[string]int{})
	stub.counts[stub.key("sales@acme.com", "2026-09-01")] = 95

	remaining, err := svc.CapacityRemaining(context.Background(), "sales@acme.com", "2026-09-01")

	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestCheckCapacity_AtLimit(t *testing.T) {
	svc, stub := newTestService(2, map[string]int{})
	day := utils.DayKey(utils.Now())
	stub.counts[stub.key("sales@acme.com", day)] = 2

	err := svc.CheckCapacity(context.Background(), "sales@acme.com")

	assert.ErrorIs(t, err, outflowErrors.ErrCapacityExceeded)
}

func TestRegisterSend_ConsumesBudget(t *testing.T) {
	svc, _ := newTestService(2, map[string]int{})
	ctx := context.Background()

	require.NoError(t, svc.CheckCapacity(ctx, "sales@acme.com"))
	require.NoError(t, svc.RegisterSend(ctx, "sales@acme.com"))
	require.NoError(t, svc.RegisterSend(ctx, "sales@acme.com"))

	assert.ErrorIs(t, svc.CheckCapacity(ctx, "sales@acme.com"), outflowErrors.ErrCapacityExceeded)
}

func TestCapacityResetsAtDayRollover(t *testing.T) {
	svc, stub := newTestService(2, map[string]int{})
	yesterday := utils.DayKey(utils.Now().AddDate(0, 0, -1))
	stub.counts[stub.key("sales@acme.com", yesterday)] = 2

	assert.NoError(t, svc.CheckCapacity(context.Background(), "sales@acme.com"))
}

func TestCapacityIsPerMailbox(t *testing.T) {
	svc, _ := newTestService(1, map[string]int{})
	ctx := context.Background()

	require.NoError(t, svc.RegisterSend(ctx, "sales@acme.com"))

	assert.ErrorIs(t, svc.CheckCapacity(ctx, "sales@acme.com"), outflowErrors.ErrCapacityExceeded)
	assert.NoError(t, svc.CheckCapacity(ctx, "growth@acme.com"))
}
