package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	app "github.com/okian/rentscore/internal/app"
	"github.com/okian/rentscore/internal/domain/scoring"
	"github.com/okian/rentscore/internal/domain/types"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printBoard(w io.Writer, entries []types.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scores yet.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "RANK\tPARTICIPANT\tSCORE\tRECORDED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", e.Rank, e.Username, e.ScoreValue, e.CreatedAt.UTC().Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func printReport(w io.Writer, r app.RunReport) {
	fmt.Fprintf(w, "Scored %d of %d participants over %d listings in %s\n",
		len(r.Scored), r.Participants, r.Listings, r.Duration.Round(time.Millisecond))
	if len(r.Scored) > 0 {
		tw := newTable(w)
		fmt.Fprintln(tw, "PARTICIPANT\tACCURACY\tAVG ERROR\tVALID\tSKIPPED\tSTORED")
		for _, s := range r.Scored {
			fmt.Fprintf(tw, "%s\t%.1f%%\t%.1f%%\t%d\t%d\t%d\n",
				s.Participant.Name,
				s.Score.DisplayScore(),
				s.Score.AverageError,
				s.Score.ValidPredictionCount,
				s.Score.SkippedCount,
				s.Event.Value,
			)
		}
		_ = tw.Flush()
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "No valid predictions: %s\n", strings.Join(r.Skipped, ", "))
	}
}

func printExplanation(w io.Writer, exp scoring.Explanation) {
	fmt.Fprintf(w, "Calculations for %s\n", exp.Participant)
	tw := newTable(w)
	fmt.Fprintln(tw, "LISTING\tACTUAL\tGUESS\tERROR")
	for _, c := range exp.Calculations {
		name := c.Listing
		if name == "" {
			name = c.ListingID
		}
		errCol := "skipped"
		if c.Included {
			errCol = fmt.Sprintf("%.2f%%", c.Error)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, money(c.ActualRent), money(c.Guess), errCol)
	}
	_ = tw.Flush()
	if exp.Score == nil {
		fmt.Fprintln(w, "No valid predictions.")
		return
	}
	fmt.Fprintf(w, "Average error: %.2f%% over %d listings (%d skipped)\n",
		exp.Score.AverageError, exp.Score.ValidPredictionCount, exp.Score.SkippedCount)
	fmt.Fprintf(w, "Accuracy score: %.1f%%\n", exp.Score.DisplayScore())
}

func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("$%.0f", *v)
}
