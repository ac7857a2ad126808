package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"propfirm/internal/models"
	"propfirm/internal/store"
	"propfirm/internal/websocket"

	"github.com/jmoiron/sqlx"
)

// lockingTxRunner serializes transactions the way the challenge row lock does.
type lockingTxRunner struct {
	mu    sync.Mutex
	calls int
}

func (r *lockingTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return fn(nil)
}

// conflictOnceTxRunner runs the first attempt, throws its writes away as a
// rolled back serialization failure would, calls between, then retries.
type conflictOnceTxRunner struct {
	challenges *memChallengeStore
	audit      *memAuditStore
	between    func()
	attempts   int
}

func (r *conflictOnceTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	r.attempts++
	r.challenges.mu.Lock()
	saved := make(map[string]models.Challenge, len(r.challenges.rows))
	for id, row := range r.challenges.rows {
		saved[id] = row
	}
	r.challenges.mu.Unlock()
	r.audit.mu.Lock()
	auditLen := len(r.audit.records)
	r.audit.mu.Unlock()

	if err := fn(nil); err != nil {
		return err
	}

	r.challenges.mu.Lock()
	r.challenges.rows = saved
	r.challenges.mu.Unlock()
	r.audit.mu.Lock()
	r.audit.records = r.audit.records[:auditLen]
	r.audit.mu.Unlock()
	if r.between != nil {
		r.between()
	}
	r.attempts++
	return fn(nil)
}

type failingTxRunner struct {
	err error
}

func (f failingTxRunner) WithTx(context.Context, func(*sqlx.Tx) error) error {
	return f.err
}

// memChallengeStore keeps challenges in a map and mirrors the ACTIVE guard of
// the SQL update.
type memChallengeStore struct {
	mu          sync.Mutex
	rows        map[string]models.Challenge
	createErr   error
	leaderboard []store.LeaderboardRow
}

func newMemChallengeStore(rows ...models.Challenge) *memChallengeStore {
	s := &memChallengeStore{rows: make(map[string]models.Challenge)}
	for _, row := range rows {
		s.rows[row.ID] = row
	}
	return s
}

func (s *memChallengeStore) get(id string) models.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id]
}

func (s *memChallengeStore) put(c models.Challenge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[c.ID] = c
}

func (s *memChallengeStore) Create(_ context.Context, _ store.Execer, c models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.rows[c.ID] = c
	return nil
}

func (s *memChallengeStore) GetByID(_ context.Context, id string) (models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return models.Challenge{}, sql.ErrNoRows
	}
	return row, nil
}

func (s *memChallengeStore) GetForUpdate(ctx context.Context, _ store.Getter, id string) (models.Challenge, error) {
	return s.GetByID(ctx, id)
}

func (s *memChallengeStore) Update(_ context.Context, _ store.Execer, c models.Challenge) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rows[c.ID]
	if !ok || current.Status != models.StatusActive {
		return 0, nil
	}
	s.rows[c.ID] = c
	return 1, nil
}

func (s *memChallengeStore) HasActive(_ context.Context, _ store.Getter, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.OwnerID == ownerID && row.Status == models.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (s *memChallengeStore) ListByOwner(_ context.Context, ownerID string, status models.ChallengeStatus) ([]models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Challenge{}
	for _, row := range s.rows {
		if row.OwnerID == ownerID && (status == "" || row.Status == status) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memChallengeStore) ListAll(_ context.Context, status models.ChallengeStatus, limit, offset int) ([]models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Challenge{}
	for _, row := range s.rows {
		if status == "" || row.Status == status {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return []models.Challenge{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *memChallengeStore) ListStaleActive(_ context.Context, day time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []string{}
	for id, row := range s.rows {
		if row.Status == models.StatusActive && row.CurrentTradingDay.Before(day) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *memChallengeStore) Leaderboard(_ context.Context, limit int) ([]store.LeaderboardRow, error) {
	if limit < len(s.leaderboard) {
		return s.leaderboard[:limit], nil
	}
	return s.leaderboard, nil
}

type memTradeStore struct {
	mu   sync.Mutex
	rows []models.Trade
}

func (s *memTradeStore) Insert(_ context.Context, _ store.Execer, t models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, t)
	return nil
}

func (s *memTradeStore) ListByChallenge(_ context.Context, challengeID string, limit, offset int) ([]models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Trade{}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].ChallengeID == challengeID {
			out = append(out, s.rows[i])
		}
	}
	if offset >= len(out) {
		return []models.Trade{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *memTradeStore) CountByChallenge(_ context.Context, challengeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, row := range s.rows {
		if row.ChallengeID == challengeID {
			count++
		}
	}
	return count, nil
}

func (s *memTradeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type auditRecord struct {
	actorID  string
	action   string
	entityID string
	data     string
}

type memAuditStore struct {
	mu      sync.Mutex
	records []auditRecord
}

func (s *memAuditStore) Log(_ context.Context, _ store.Execer, actorID, action, _ string, entityID, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, auditRecord{actorID: actorID, action: action, entityID: entityID, data: data})
	return nil
}

func (s *memAuditStore) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record.action)
	}
	return out
}

type recordingHub struct {
	mu      sync.Mutex
	updates []websocket.ChallengeUpdate
	owners  []string
}

func (h *recordingHub) BroadcastChallenge(ownerID string, update websocket.ChallengeUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.owners = append(h.owners, ownerID)
	h.updates = append(h.updates, update)
}

func (h *recordingHub) all() []websocket.ChallengeUpdate {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]websocket.ChallengeUpdate(nil), h.updates...)
}
