package engine

import (
	"time"

	"propfirm/internal/models"
)

// TradingDay truncates t to its UTC calendar date.
func TradingDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EnsureCurrentDay rebases the daily baseline when at falls on a later UTC day
// than the challenge's current trading day. It returns true when it rolled.
// Timestamps on an earlier day never move the marker backwards.
func EnsureCurrentDay(c models.Challenge, at time.Time) (models.Challenge, bool) {
	day := TradingDay(at)
	if !day.After(TradingDay(c.CurrentTradingDay)) {
		return c, false
	}
	c.DayStartBalance = c.CurrentBalance
	c.CurrentTradingDay = day
	return c, true
}
