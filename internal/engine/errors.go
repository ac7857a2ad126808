// Package engine holds the challenge risk rules: trade P&L, day rollover,
// equity metrics, rule evaluation and the status state machine.
//
// Everything here is pure. Callers are responsible for loading the challenge
// under an exclusive lock and persisting the returned values atomically.
package engine

import "errors"

var (
	ErrInvalidTrade         = errors.New("invalid trade parameters")
	ErrChallengeNotFound    = errors.New("challenge not found")
	ErrChallengeNotActive   = errors.New("challenge is not active")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrConcurrencyConflict  = errors.New("concurrent update conflict")
	ErrUnknownChallengeType = errors.New("unknown challenge type")
	ErrInvalidChallengeType = errors.New("invalid challenge type configuration")
)
