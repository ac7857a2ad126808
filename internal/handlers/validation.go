package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"propfirm/internal/engine"
	"propfirm/internal/money"

	"github.com/shopspring/decimal"
)

const (
	maxBodyBytes = 1 << 20
	defaultLimit = 50
	maxLimit     = 200

	totalCountHeader = "X-Total-Count"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dest)
}

// parseDecimalField accepts a JSON number or numeric string and parses it
// without going through float64.
func parseDecimalField(field string, raw json.Number) (decimal.Decimal, error) {
	if strings.TrimSpace(raw.String()) == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is required", engine.ErrInvalidTrade, field)
	}
	value, err := money.Parse(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", engine.ErrInvalidTrade, field, err)
	}
	return value, nil
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// pagination reads ?page= and ?limit= (1-based page, limit capped at maxLimit).
func pagination(r *http.Request) (limit, offset int) {
	query := r.URL.Query()
	limit = parseInt(query.Get("limit"), defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	page := parseInt(query.Get("page"), 1)
	return limit, (page - 1) * limit
}
