package websocket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// ChallengeUpdate is pushed to the owner after every committed change to one
// of their challenges.
type ChallengeUpdate struct {
	Event          string `json:"event"`
	ChallengeID    string `json:"challenge_id"`
	Status         string `json:"status"`
	StatusReason   string `json:"status_reason,omitempty"`
	CurrentBalance string `json:"current_balance"`
	DailyLossPct   string `json:"daily_loss_pct"`
	TotalLossPct   string `json:"total_loss_pct"`
	ProfitPct      string `json:"profit_pct"`
	TradeID        string `json:"trade_id,omitempty"`
}

const (
	EventTrade    = "trade"
	EventStatus   = "status"
	EventRollover = "rollover"
)

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

// Unregister removes the client and closes its send queue. Safe to call twice.
func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[userID]
	if set == nil {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// BroadcastChallenge fans the update out to every connection of ownerID.
// Slow clients drop messages instead of blocking the caller.
func (h *Hub) BroadcastChallenge(ownerID string, update ChallengeUpdate) {
	payload, err := json.Marshal(envelope{Type: "challenge_update", Data: update})
	if err != nil {
		h.logger.Error("marshal challenge update", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[ownerID] {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("dropping challenge update for slow client",
				zap.String("owner_id", ownerID),
				zap.String("challenge_id", update.ChallengeID))
		}
	}
}
