package store

import (
	"context"

	"propfirm/internal/models"
)

// TradeStore is append-only. Trades are never updated or deleted.
type TradeStore struct {
	db DB
}

func NewTradeStore(db DB) *TradeStore {
	return &TradeStore{db: db}
}

func (s *TradeStore) Insert(ctx context.Context, tx Execer, t models.Trade) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO trades (id, challenge_id, symbol, side, entry_price, exit_price, quantity, pnl, opened_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.ChallengeID, t.Symbol, t.Side, t.EntryPrice, t.ExitPrice, t.Quantity, t.PnL, t.OpenedAt, t.ClosedAt)
	return err
}

func (s *TradeStore) ListByChallenge(ctx context.Context, challengeID string, limit, offset int) ([]models.Trade, error) {
	rows := []models.Trade{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, challenge_id, symbol, side, entry_price, exit_price, quantity, pnl, opened_at, closed_at
		FROM trades
		WHERE challenge_id = $1
		ORDER BY closed_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, challengeID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TradeStore) CountByChallenge(ctx context.Context, challengeID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM trades
		WHERE challenge_id = $1
	`, challengeID)
	return count, err
}
