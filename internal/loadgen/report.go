package loadgen

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/okian/podium/internal/domain/model"
)

// render writes the run summary and the unified board as text tables.
func render(out io.Writer, r *Report) error {
	s := r.Stats
	var perSecond float64
	if s.Duration > 0 {
		perSecond = float64(s.Submitted) / s.Duration.Seconds()
	}

	summary := tablewriter.NewWriter(out)
	summary.SetHeader([]string{"Metric", "Value"})
	summary.AppendBulk([][]string{
		{"Seed", strconv.FormatInt(r.Seed, 10)},
		{"Generated", strconv.Itoa(s.Generated)},
		{"Submitted", strconv.Itoa(s.Submitted)},
		{"Created", strconv.Itoa(s.Successful)},
		{"Rejected", strconv.Itoa(s.Rejected)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Boards read", strconv.Itoa(s.Boards)},
		{"Duration", s.Duration.String()},
		{"Submissions/s", fmt.Sprintf("%.1f", perSecond)},
		{"Violations", strconv.Itoa(len(r.Violations))},
	})
	summary.Render()

	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	renderBoard(out, r.Unified)
	return nil
}

func renderBoard(out io.Writer, entries []model.ScoreEntry) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Name", "Score", "Difficulty"})
	for i, e := range entries {
		table.Append([]string{strconv.Itoa(i + 1), e.Name, strconv.FormatFloat(e.Score, 'f', -1, 64), e.Category})
	}
	table.Render()
}
