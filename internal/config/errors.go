package config

import (
	"errors"
)

// Sentinel error kinds. Load wraps file, env and decode failures in
// ErrLoadConfig and rejected settings in ErrInvalidConfig.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
