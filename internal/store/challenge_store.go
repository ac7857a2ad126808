package store

import (
	"context"
	"time"

	"propfirm/internal/models"

	"github.com/shopspring/decimal"
)

type ChallengeStore struct {
	db DB
}

const challengeColumns = `
	id, owner_id, challenge_type,
	initial_balance, current_balance, day_start_balance,
	daily_loss_limit_pct, total_loss_limit_pct, profit_target_pct,
	status, status_reason, start_date, end_date, current_trading_day,
	created_at, updated_at`

// ChallengeReconciliation compares the stored balance with the balance
// rebuilt from the trade history.
type ChallengeReconciliation struct {
	ID                string          `db:"id"`
	OwnerID           string          `db:"owner_id"`
	Status            string          `db:"status"`
	StoredBalance     decimal.Decimal `db:"stored_balance"`
	CalculatedBalance decimal.Decimal `db:"calculated_balance"`
	Difference        decimal.Decimal `db:"difference"`
	TradeCount        int             `db:"trade_count"`
}

type LeaderboardRow struct {
	OwnerID    string          `db:"owner_id"`
	TotalPnL   decimal.Decimal `db:"total_pnl"`
	Challenges int             `db:"challenges"`
	Passed     int             `db:"passed"`
	Trades     int             `db:"trades"`
}

func NewChallengeStore(db DB) *ChallengeStore {
	return &ChallengeStore{db: db}
}

func (s *ChallengeStore) Create(ctx context.Context, tx Execer, c models.Challenge) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO challenges (`+challengeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, c.ID, c.OwnerID, c.Type,
		c.InitialBalance, c.CurrentBalance, c.DayStartBalance,
		c.DailyLossLimitPct, c.TotalLossLimitPct, c.ProfitTargetPct,
		c.Status, c.StatusReason, c.StartDate, c.EndDate, c.CurrentTradingDay,
		c.CreatedAt, c.UpdatedAt)
	return err
}

func (s *ChallengeStore) GetByID(ctx context.Context, id string) (models.Challenge, error) {
	var row models.Challenge
	err := s.db.GetContext(ctx, &row, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id)
	if err != nil {
		return models.Challenge{}, err
	}
	return row, nil
}

// GetForUpdate takes the row lock that serializes every mutation of one
// challenge for the rest of the transaction.
func (s *ChallengeStore) GetForUpdate(ctx context.Context, tx Getter, id string) (models.Challenge, error) {
	var row models.Challenge
	err := tx.GetContext(ctx, &row, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return models.Challenge{}, err
	}
	return row, nil
}

// Update persists the mutable state of a challenge. The WHERE clause refuses
// to touch a row that is already terminal.
func (s *ChallengeStore) Update(ctx context.Context, tx Execer, c models.Challenge) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE challenges
		SET current_balance = $1,
		    day_start_balance = $2,
		    current_trading_day = $3,
		    status = $4,
		    status_reason = $5,
		    end_date = $6,
		    updated_at = $7
		WHERE id = $8 AND status = 'ACTIVE'
	`, c.CurrentBalance, c.DayStartBalance, c.CurrentTradingDay,
		c.Status, c.StatusReason, c.EndDate, c.UpdatedAt, c.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ChallengeStore) HasActive(ctx context.Context, tx Getter, ownerID string) (bool, error) {
	var count int
	err := tx.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM challenges
		WHERE owner_id = $1 AND status = 'ACTIVE'
	`, ownerID)
	return count > 0, err
}

func (s *ChallengeStore) ListByOwner(ctx context.Context, ownerID string, status models.ChallengeStatus) ([]models.Challenge, error) {
	rows := []models.Challenge{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+challengeColumns+`
		FROM challenges
		WHERE owner_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`, ownerID, string(status))
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ChallengeStore) ListAll(ctx context.Context, status models.ChallengeStatus, limit, offset int) ([]models.Challenge, error) {
	rows := []models.Challenge{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+challengeColumns+`
		FROM challenges
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListStaleActive returns ACTIVE challenges whose trading day is before day.
func (s *ChallengeStore) ListStaleActive(ctx context.Context, day time.Time) ([]string, error) {
	ids := []string{}
	err := s.db.SelectContext(ctx, &ids, `
		SELECT id
		FROM challenges
		WHERE status = 'ACTIVE' AND current_trading_day < $1
		ORDER BY id
	`, day)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Reconcile lists challenges whose stored balance disagrees with the initial
// balance plus the sum of their trades.
func (s *ChallengeStore) Reconcile(ctx context.Context) ([]ChallengeReconciliation, error) {
	rows := []ChallengeReconciliation{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.id,
		       c.owner_id,
		       c.status,
		       c.current_balance AS stored_balance,
		       c.initial_balance + COALESCE(SUM(t.pnl), 0) AS calculated_balance,
		       c.current_balance - (c.initial_balance + COALESCE(SUM(t.pnl), 0)) AS difference,
		       COUNT(t.id) AS trade_count
		FROM challenges c
		LEFT JOIN trades t ON t.challenge_id = c.id
		GROUP BY c.id, c.owner_id, c.status, c.current_balance, c.initial_balance
		HAVING c.current_balance <> c.initial_balance + COALESCE(SUM(t.pnl), 0)
		ORDER BY c.id
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Leaderboard ranks owners by realized P&L across all their challenges.
func (s *ChallengeStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	rows := []LeaderboardRow{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.owner_id,
		       COALESCE(SUM(t.pnl), 0) AS total_pnl,
		       COUNT(DISTINCT c.id) AS challenges,
		       COUNT(DISTINCT c.id) FILTER (WHERE c.status = 'PASSED') AS passed,
		       COUNT(t.id) AS trades
		FROM challenges c
		LEFT JOIN trades t ON t.challenge_id = c.id
		GROUP BY c.owner_id
		ORDER BY total_pnl DESC, c.owner_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
