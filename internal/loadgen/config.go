// Package loadgen drives a running leaderboard over HTTP: it submits fake
// scores concurrently, reads the boards back and checks their ordering.
package loadgen

import (
	"runtime"
	"time"

	"github.com/okian/podium/pkg/logger"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Submissions int           // Number of scores to submit
	Categories  []string      // Difficulties to spread scores over
	TopN        int           // Board size the server is configured with
	Workers     int           // Number of concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	Seed        int64         // Faker seed; zero picks one from the clock
	Verbose     bool          // Log every failed request
	Logger      logger.Logger // Defaults to a no-op logger
}

// DefaultConfig returns the settings used by cmd/loadgen when no flags are given.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:9080",
		Submissions: 1000,
		Categories:  []string{"easy", "medium", "hard"},
		TopN:        10,
		Workers:     runtime.NumCPU() * 2,
		Timeout:     10 * time.Second,
	}
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Successful int
	Rejected   int
	Failed     int
	Boards     int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
