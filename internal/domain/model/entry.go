// Package model contains domain models passed between layers.
package model

import "time"

// DefaultTopN is the leaderboard size used when none is configured.
const DefaultTopN = 10

// ScoreEntry is one submitted score. Entries are immutable once stored.
// The JSON shape is the public wire format: {name, score, difficulty, createdAt}.
type ScoreEntry struct {
	Name      string    `json:"name"`
	Score     float64   `json:"score"`
	Category  string    `json:"difficulty"`
	CreatedAt time.Time `json:"createdAt"`

	ID  string `json:"-"` // assigned by the service
	Seq int64  `json:"-"` // insertion order within the store, assigned on insert
}

// RanksBefore reports whether e places ahead of o on a single category
// board: higher score first, then the earlier insertion.
func (e ScoreEntry) RanksBefore(o ScoreEntry) bool {
	if e.Score != o.Score {
		return e.Score > o.Score
	}
	return e.Seq < o.Seq
}
