package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"propfirm/internal/db"
	"propfirm/internal/engine"
	"propfirm/internal/models"
	"propfirm/internal/money"
	"propfirm/internal/store"
	"propfirm/internal/validator"
	"propfirm/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrChallengeAccessDenied = errors.New("challenge does not belong to user")
	ErrActiveChallengeExists = errors.New("user already has an active challenge")
)

const leaderboardSize = 10

type ChallengeStore interface {
	Create(ctx context.Context, tx store.Execer, c models.Challenge) error
	GetByID(ctx context.Context, id string) (models.Challenge, error)
	GetForUpdate(ctx context.Context, tx store.Getter, id string) (models.Challenge, error)
	Update(ctx context.Context, tx store.Execer, c models.Challenge) (int64, error)
	HasActive(ctx context.Context, tx store.Getter, ownerID string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string, status models.ChallengeStatus) ([]models.Challenge, error)
	ListAll(ctx context.Context, status models.ChallengeStatus, limit, offset int) ([]models.Challenge, error)
	ListStaleActive(ctx context.Context, day time.Time) ([]string, error)
	Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardRow, error)
}

type TradeStore interface {
	Insert(ctx context.Context, tx store.Execer, t models.Trade) error
	ListByChallenge(ctx context.Context, challengeID string, limit, offset int) ([]models.Trade, error)
	CountByChallenge(ctx context.Context, challengeID string) (int, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type ChallengeHub interface {
	BroadcastChallenge(ownerID string, update websocket.ChallengeUpdate)
}

type ChallengeService struct {
	txRunner   db.TxRunner
	challenges ChallengeStore
	trades     TradeStore
	audit      AuditStore
	hub        ChallengeHub
	types      []models.ChallengeTypeConfig
	logger     *zap.Logger
	now        func() time.Time
}

func NewChallengeService(txRunner db.TxRunner, challenges ChallengeStore, trades TradeStore, audit AuditStore, hub ChallengeHub, types []models.ChallengeTypeConfig, logger *zap.Logger) *ChallengeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChallengeService{
		txRunner:   txRunner,
		challenges: challenges,
		trades:     trades,
		audit:      audit,
		hub:        hub,
		types:      types,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ChallengeView is a challenge together with its equity metrics.
type ChallengeView struct {
	Challenge models.Challenge
	Snapshot  engine.Snapshot
}

type TradeRequest struct {
	OwnerID string
	Input   engine.TradeInput
}

type TradeResult struct {
	Trade models.Trade
	View  ChallengeView
}

type OverrideRequest struct {
	ActorID     string
	ChallengeID string
	Status      string
	Reason      string
}

type LeaderboardEntry struct {
	Rank       int
	OwnerID    string
	TotalPnL   decimal.Decimal
	Challenges int
	Passed     int
	Trades     int
	WinRatePct decimal.Decimal
}

func (s *ChallengeService) ChallengeTypes() []models.ChallengeTypeConfig {
	return s.types
}

func (s *ChallengeService) lookupType(name string) (models.ChallengeTypeConfig, error) {
	for _, cfg := range s.types {
		if strings.EqualFold(string(cfg.Type), strings.TrimSpace(name)) {
			return cfg, nil
		}
	}
	return models.ChallengeTypeConfig{}, fmt.Errorf("%w: %q", engine.ErrUnknownChallengeType, name)
}

// CreateChallenge opens a new ACTIVE challenge for ownerID. An owner may only
// hold one ACTIVE challenge at a time.
func (s *ChallengeService) CreateChallenge(ctx context.Context, ownerID, challengeType string) (ChallengeView, error) {
	cfg, err := s.lookupType(challengeType)
	if err != nil {
		return ChallengeView{}, err
	}
	challenge, err := engine.NewChallenge(uuid.NewString(), ownerID, cfg, s.now())
	if err != nil {
		return ChallengeView{}, err
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		active, err := s.challenges.HasActive(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if active {
			return ErrActiveChallengeExists
		}
		if err := s.challenges.Create(ctx, tx, challenge); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"challenge_type":  string(challenge.Type),
			"initial_balance": money.FormatAmount(challenge.InitialBalance),
		})
		return s.audit.Log(ctx, tx, ownerID, "challenge.create", "challenge", challenge.ID, string(data))
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ChallengeView{}, ErrActiveChallengeExists
		}
		return ChallengeView{}, translateError(err)
	}
	s.logger.Info("challenge created",
		zap.String("challenge_id", challenge.ID),
		zap.String("owner_id", ownerID),
		zap.String("challenge_type", string(challenge.Type)))
	return s.view(challenge), nil
}

// RecordTrade validates a closed trade, books it against its challenge under
// the row lock and applies the risk rules. Invalid input never opens a
// transaction.
func (s *ChallengeService) RecordTrade(ctx context.Context, req TradeRequest) (TradeResult, error) {
	now := s.now()
	trade, err := engine.NewTrade(uuid.NewString(), req.Input, now)
	if err != nil {
		return TradeResult{}, err
	}
	var outcome engine.Outcome
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		challenge, err := s.challenges.GetForUpdate(ctx, tx, trade.ChallengeID)
		if err != nil {
			return err
		}
		if challenge.OwnerID != req.OwnerID {
			return ErrChallengeAccessDenied
		}
		outcome, err = engine.Settle(challenge, trade)
		if err != nil {
			return err
		}
		outcome.Challenge.UpdatedAt = now
		if err := s.trades.Insert(ctx, tx, trade); err != nil {
			return err
		}
		if err := s.persist(ctx, tx, outcome.Challenge); err != nil {
			return err
		}
		if !outcome.Transitioned {
			return nil
		}
		data, _ := json.Marshal(map[string]string{
			"trade_id":        trade.ID,
			"reason":          outcome.Challenge.StatusReason,
			"current_balance": money.FormatAmount(outcome.Challenge.CurrentBalance),
		})
		action := "challenge." + strings.ToLower(string(outcome.Challenge.Status))
		return s.audit.Log(ctx, tx, "", action, "challenge", trade.ChallengeID, string(data))
	})
	if err != nil {
		err = translateError(err)
		if errors.Is(err, engine.ErrConcurrencyConflict) {
			s.logger.Warn("trade lost serialization race", zap.String("challenge_id", trade.ChallengeID), zap.Error(err))
		}
		return TradeResult{}, err
	}
	if outcome.Transitioned {
		s.logger.Info("challenge transitioned",
			zap.String("challenge_id", outcome.Challenge.ID),
			zap.String("status", string(outcome.Challenge.Status)),
			zap.String("reason", outcome.Challenge.StatusReason),
			zap.String("trade_id", trade.ID))
	}
	view := ChallengeView{Challenge: outcome.Challenge, Snapshot: outcome.Snapshot}
	s.broadcast(websocket.EventTrade, view, trade.ID)
	return TradeResult{Trade: trade, View: view}, nil
}

// OverrideStatus forces an ACTIVE challenge into PASSED or FAILED on behalf
// of an admin.
func (s *ChallengeService) OverrideStatus(ctx context.Context, req OverrideRequest) (ChallengeView, error) {
	target, err := validator.NormalizeStatus(req.Status)
	if err != nil {
		return ChallengeView{}, fmt.Errorf("%w: %v", engine.ErrInvalidTransition, err)
	}
	note := strings.TrimSpace(req.Reason)
	now := s.now()
	var updated models.Challenge
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		challenge, err := s.challenges.GetForUpdate(ctx, tx, req.ChallengeID)
		if err != nil {
			return err
		}
		previous := challenge.Status
		updated, err = engine.Override(challenge, target, note, now)
		if err != nil {
			return err
		}
		updated.UpdatedAt = now
		if err := s.persist(ctx, tx, updated); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"from":   string(previous),
			"to":     string(updated.Status),
			"reason": note,
		})
		return s.audit.Log(ctx, tx, req.ActorID, "challenge.override", "challenge", updated.ID, string(data))
	})
	if err != nil {
		return ChallengeView{}, translateError(err)
	}
	s.logger.Info("challenge status overridden",
		zap.String("challenge_id", updated.ID),
		zap.String("actor_id", req.ActorID),
		zap.String("status", string(updated.Status)))
	view := s.view(updated)
	s.broadcast(websocket.EventStatus, view, "")
	return view, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, ownerID, challengeID string) (ChallengeView, error) {
	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return ChallengeView{}, translateError(err)
	}
	if challenge.OwnerID != ownerID {
		return ChallengeView{}, ErrChallengeAccessDenied
	}
	return s.view(challenge), nil
}

// GetChallengeAsAdmin skips the ownership check.
func (s *ChallengeService) GetChallengeAsAdmin(ctx context.Context, challengeID string) (ChallengeView, error) {
	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return ChallengeView{}, translateError(err)
	}
	return s.view(challenge), nil
}

func (s *ChallengeService) ListChallenges(ctx context.Context, ownerID, status string) ([]ChallengeView, error) {
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	rows, err := s.challenges.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	return s.views(rows), nil
}

func (s *ChallengeService) ListAllChallenges(ctx context.Context, status string, limit, offset int) ([]ChallengeView, error) {
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	rows, err := s.challenges.ListAll(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.views(rows), nil
}

// ListTrades returns one page of the challenge's trades, newest first, and the
// total number of trades booked against it.
func (s *ChallengeService) ListTrades(ctx context.Context, ownerID, challengeID string, limit, offset int) ([]models.Trade, int, error) {
	if _, err := s.GetChallenge(ctx, ownerID, challengeID); err != nil {
		return nil, 0, err
	}
	total, err := s.trades.CountByChallenge(ctx, challengeID)
	if err != nil {
		return nil, 0, err
	}
	trades, err := s.trades.ListByChallenge(ctx, challengeID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return trades, total, nil
}

// Leaderboard ranks owners by realized P&L. Win rate is passed challenges
// over all challenges the owner has opened.
func (s *ChallengeService) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	rows, err := s.challenges.Leaderboard(ctx, leaderboardSize)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		winRate := decimal.Zero
		if row.Challenges > 0 {
			winRate = decimal.NewFromInt(int64(row.Passed)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(row.Challenges)))
		}
		entries = append(entries, LeaderboardEntry{
			Rank:       i + 1,
			OwnerID:    row.OwnerID,
			TotalPnL:   row.TotalPnL,
			Challenges: row.Challenges,
			Passed:     row.Passed,
			Trades:     row.Trades,
			WinRatePct: winRate,
		})
	}
	return entries, nil
}

func (s *ChallengeService) persist(ctx context.Context, tx store.Execer, c models.Challenge) error {
	rows, err := s.challenges.Update(ctx, tx, c)
	if err != nil {
		return err
	}
	if rows == 0 {
		return engine.ErrChallengeNotActive
	}
	return nil
}

// view projects the daily baseline onto today for idle ACTIVE challenges so
// read-side metrics match what the next trade would see.
func (s *ChallengeService) view(c models.Challenge) ChallengeView {
	if c.Status == models.StatusActive {
		c, _ = engine.EnsureCurrentDay(c, s.now())
	}
	return ChallengeView{Challenge: c, Snapshot: engine.Measure(c)}
}

func (s *ChallengeService) views(rows []models.Challenge) []ChallengeView {
	out := make([]ChallengeView, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.view(row))
	}
	return out
}

func (s *ChallengeService) broadcast(event string, view ChallengeView, tradeID string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastChallenge(view.Challenge.OwnerID, websocket.ChallengeUpdate{
		Event:          event,
		ChallengeID:    view.Challenge.ID,
		Status:         string(view.Challenge.Status),
		StatusReason:   view.Challenge.StatusReason,
		CurrentBalance: money.FormatAmount(view.Challenge.CurrentBalance),
		DailyLossPct:   money.FormatPct(view.Snapshot.DailyLossPct),
		TotalLossPct:   money.FormatPct(view.Snapshot.TotalLossPct),
		ProfitPct:      money.FormatPct(view.Snapshot.ProfitPct),
		TradeID:        tradeID,
	})
}

func statusFilter(status string) (models.ChallengeStatus, error) {
	if strings.TrimSpace(status) == "" {
		return "", nil
	}
	return validator.NormalizeStatus(status)
}

func translateError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return engine.ErrChallengeNotFound
	case errors.Is(err, db.ErrRetryLimitExceeded):
		return fmt.Errorf("%w: %v", engine.ErrConcurrencyConflict, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
