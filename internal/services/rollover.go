package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"propfirm/internal/engine"
	"propfirm/internal/models"
	"propfirm/internal/money"
	"propfirm/internal/websocket"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// RolloverDay rebases the daily baseline of every ACTIVE challenge still on
// an earlier trading day. Each challenge is handled in its own transaction
// under the row lock, so a failure on one does not stop the sweep. It returns
// how many challenges were rolled.
func (s *ChallengeService) RolloverDay(ctx context.Context, now time.Time) (int, error) {
	day := engine.TradingDay(now)
	ids, err := s.challenges.ListStaleActive(ctx, day)
	if err != nil {
		return 0, err
	}
	var (
		rolled int
		errs   []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		view, ok, err := s.rolloverOne(ctx, id, now)
		if err != nil {
			s.logger.Warn("day rollover failed", zap.String("challenge_id", id), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		rolled++
		s.broadcast(websocket.EventRollover, view, "")
	}
	s.logger.Info("day rollover finished",
		zap.Time("trading_day", day),
		zap.Int("candidates", len(ids)),
		zap.Int("rolled", rolled))
	return rolled, errors.Join(errs...)
}

func (s *ChallengeService) rolloverOne(ctx context.Context, id string, now time.Time) (ChallengeView, bool, error) {
	var (
		updated models.Challenge
		rolled  bool
	)
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		// WithTx may rerun this after a serialization failure.
		updated, rolled = models.Challenge{}, false
		challenge, err := s.challenges.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if challenge.Status != models.StatusActive {
			return nil
		}
		updated, rolled = engine.EnsureCurrentDay(challenge, now)
		if !rolled {
			return nil
		}
		updated.UpdatedAt = now.UTC()
		if err := s.persist(ctx, tx, updated); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"trading_day":       updated.CurrentTradingDay.Format(time.DateOnly),
			"day_start_balance": money.FormatAmount(updated.DayStartBalance),
		})
		return s.audit.Log(ctx, tx, "", "challenge.rollover", "challenge", id, string(data))
	})
	if err != nil {
		return ChallengeView{}, false, translateError(err)
	}
	if !rolled {
		return ChallengeView{}, false, nil
	}
	return ChallengeView{Challenge: updated, Snapshot: engine.Measure(updated)}, true, nil
}
