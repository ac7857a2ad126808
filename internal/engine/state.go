package engine

import (
	"fmt"
	"time"

	"propfirm/internal/models"
)

// Transition applies a rule decision. An ACTIVE decision is a no-op; a
// terminal one stamps end_date. The bool reports whether the status changed.
func Transition(c models.Challenge, d Decision, now time.Time) (models.Challenge, bool, error) {
	if c.Status != models.StatusActive {
		return c, false, ErrChallengeNotActive
	}
	switch d.Status {
	case models.StatusActive:
		return c, false, nil
	case models.StatusPassed, models.StatusFailed:
		end := now.UTC()
		c.Status = d.Status
		c.StatusReason = string(d.Reason)
		c.EndDate = &end
		return c, true, nil
	default:
		return c, false, fmt.Errorf("%w: %q", ErrInvalidTransition, d.Status)
	}
}

// Override forces an ACTIVE challenge into PASSED or FAILED without running
// the rules. Terminal challenges can never be reopened.
func Override(c models.Challenge, target models.ChallengeStatus, note string, now time.Time) (models.Challenge, error) {
	if !target.Terminal() {
		return c, fmt.Errorf("%w: override target must be PASSED or FAILED", ErrInvalidTransition)
	}
	reason := string(ReasonOverride)
	if note != "" {
		reason = reason + ": " + note
	}
	c, _, err := Transition(c, Decision{Status: target, Reason: Reason(reason)}, now)
	return c, err
}

// Outcome is the result of settling one trade against a challenge.
type Outcome struct {
	Challenge    models.Challenge
	Snapshot     Snapshot
	Decision     Decision
	RolledOver   bool
	Transitioned bool
}

// Settle runs the full pipeline for a validated trade: terminal check, day
// rollover, P&L booking, rule evaluation and transition.
func Settle(c models.Challenge, trade models.Trade) (Outcome, error) {
	if c.Status != models.StatusActive {
		return Outcome{}, ErrChallengeNotActive
	}
	c, rolled := EnsureCurrentDay(c, trade.ClosedAt)
	c, snapshot := ApplyPnL(c, trade.PnL)
	decision := Evaluate(c, snapshot)
	c, changed, err := Transition(c, decision, trade.ClosedAt)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Challenge:    c,
		Snapshot:     snapshot,
		Decision:     decision,
		RolledOver:   rolled,
		Transitioned: changed,
	}, nil
}
