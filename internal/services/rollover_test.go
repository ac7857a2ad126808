package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"propfirm/internal/engine"
	"propfirm/internal/models"
	"propfirm/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededChallenge(t *testing.T, id, owner string, created time.Time, balance string) models.Challenge {
	t.Helper()
	c, err := engine.NewChallenge(id, owner, engine.DefaultChallengeTypes()[0], created)
	require.NoError(t, err)
	c.CurrentBalance = dec(balance)
	return c
}

func TestRolloverDayRebasesStaleChallenges(t *testing.T) {
	yesterday := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	midnight := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	stale := seededChallenge(t, "ch-stale", "user-1", yesterday, "9700")
	current := seededChallenge(t, "ch-current", "user-2", midnight.Add(time.Minute), "10100")
	failed := seededChallenge(t, "ch-failed", "user-3", yesterday, "8900")
	failed.Status = models.StatusFailed

	h := newHarness(t, stale, current, failed)
	h.clock = midnight

	rolled, err := h.svc.RolloverDay(context.Background(), midnight)
	require.NoError(t, err)
	assert.Equal(t, 1, rolled)

	got := h.challenges.get("ch-stale")
	assert.True(t, got.DayStartBalance.Equal(dec("9700")))
	assert.Equal(t, midnight, got.CurrentTradingDay)
	assert.True(t, h.challenges.get("ch-current").DayStartBalance.Equal(dec("10000")))
	assert.Equal(t, failed, h.challenges.get("ch-failed"))

	assert.Equal(t, []string{"challenge.rollover"}, h.audit.actions())
	assert.Empty(t, h.audit.records[0].actorID)

	updates := h.hub.all()
	require.Len(t, updates, 1)
	assert.Equal(t, websocket.EventRollover, updates[0].Event)
	assert.Equal(t, "0.0000", updates[0].DailyLossPct)

	rolled, err = h.svc.RolloverDay(context.Background(), midnight.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, rolled)
}

func TestRolloverThenTradeMeasuresFromNewBaseline(t *testing.T) {
	yesterday := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c := seededChallenge(t, "ch-1", "user-1", yesterday, "9600")
	h := newHarness(t, c)
	h.clock = today.Add(9 * time.Hour)

	_, err := h.svc.RolloverDay(context.Background(), today)
	require.NoError(t, err)

	res, err := h.svc.RecordTrade(context.Background(), tradeReq("user-1", "ch-1", "BUY", "100", "98", "100"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, res.View.Challenge.Status)
	assert.True(t, res.View.Snapshot.DailyLossPct.Equal(dec("2")))
}

func TestRolloverDayCollectsErrors(t *testing.T) {
	yesterday := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	h := newHarness(t, seededChallenge(t, "ch-1", "user-1", yesterday, "10000"))
	boom := errors.New("database is down")
	h.svc.txRunner = failingTxRunner{err: boom}

	rolled, err := h.svc.RolloverDay(context.Background(), yesterday.Add(24*time.Hour))
	require.ErrorIs(t, err, boom)
	assert.Zero(t, rolled)
}

func TestRolloverRetrySeesChallengeClosedMeanwhile(t *testing.T) {
	yesterday := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	midnight := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c := seededChallenge(t, "ch-1", "user-1", yesterday, "9700")
	h := newHarness(t, c)
	h.clock = midnight

	closed := c
	closed.Status = models.StatusFailed
	closed.StatusReason = "admin_override: closed"
	runner := &conflictOnceTxRunner{
		challenges: h.challenges,
		audit:      h.audit,
		between:    func() { h.challenges.put(closed) },
	}
	h.svc.txRunner = runner

	rolled, err := h.svc.RolloverDay(context.Background(), midnight)
	require.NoError(t, err)
	assert.Equal(t, 2, runner.attempts)
	assert.Zero(t, rolled)
	assert.Empty(t, h.hub.all())
	assert.Empty(t, h.audit.actions())
	assert.Equal(t, closed, h.challenges.get("ch-1"))
}
