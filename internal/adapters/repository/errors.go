package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for store errors.
var (
	ErrStorage          = errors.New("storage unavailable")
	ErrInvalidLimit     = errors.New("invalid leaderboard limit")
	ErrCountUnsupported = errors.New("store does not report entry count")
)

// WrapStorage tags a backend failure of op as ErrStorage while keeping the
// original cause reachable through errors.Is / errors.As.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

var errStoreClosed = errors.New("store closed")
