package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrValidation marks client input that can never succeed as sent.
	ErrValidation = errors.New("invalid submission")
	// ErrUnifiedDisabled is returned by Unified when the merged board is off.
	ErrUnifiedDisabled = errors.New("unified leaderboard is disabled")
)
