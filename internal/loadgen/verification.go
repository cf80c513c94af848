package loadgen

import (
	"fmt"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/ranking"
)

// verify checks the boards read back after a run against the submissions
// it made. Other clients may have written too, so the checks only assume
// that our scores are present.
func verify(cfg Config, subs []Submission, boards [][]model.ScoreEntry, unified []model.ScoreEntry) []string {
	var violations []string

	best := make(map[string]float64, len(cfg.Categories))
	for _, s := range subs {
		if cur, ok := best[s.Difficulty]; !ok || s.Score > cur {
			best[s.Difficulty] = s.Score
		}
	}

	for i, cat := range cfg.Categories {
		b := boards[i]
		violations = append(violations, checkBoard("difficulty "+cat, b, cfg.TopN)...)
		for _, e := range b {
			if e.Category != cat {
				violations = append(violations, fmt.Sprintf("difficulty %s: entry %q belongs to %q", cat, e.Name, e.Category))
			}
		}
		if top, ok := best[cat]; ok {
			if len(b) == 0 {
				violations = append(violations, fmt.Sprintf("difficulty %s: board empty after submissions", cat))
			} else if b[0].Score < top {
				violations = append(violations, fmt.Sprintf("difficulty %s: top score %.0f below submitted %.0f", cat, b[0].Score, top))
			}
		}
	}

	violations = append(violations, checkBoard("unified", unified, cfg.TopN)...)

	// Assumes the server knows no categories beyond cfg.Categories. Tie
	// order depends on the server's category order, so only scores are compared.
	expected := ranking.Merge(boards, cfg.TopN)
	if len(expected) != len(unified) {
		violations = append(violations, fmt.Sprintf("unified: %d entries, merge of boards gives %d", len(unified), len(expected)))
	} else {
		for i := range expected {
			if expected[i].Score != unified[i].Score {
				violations = append(violations, fmt.Sprintf("unified: position %d has score %.0f, merge gives %.0f", i+1, unified[i].Score, expected[i].Score))
				break
			}
		}
	}
	return violations
}

// checkBoard reports size and ordering problems of one board.
func checkBoard(label string, b []model.ScoreEntry, topN int) []string {
	var out []string
	if len(b) > topN {
		out = append(out, fmt.Sprintf("%s: %d entries exceed top %d", label, len(b), topN))
	}
	for i := 1; i < len(b); i++ {
		if b[i].Score > b[i-1].Score {
			out = append(out, fmt.Sprintf("%s: entry %d scores above entry %d", label, i+1, i))
			break
		}
	}
	return out
}
