package assessor

import (
	"fmt"
	"io"

	"github.com/canopy-network/syncx/pkg/estimate"
	"github.com/canopy-network/syncx/pkg/logparse"
)

const timeFormat = "2006-01-02 15:04"

var windowTitles = map[estimate.Window]string{
	estimate.AllTime:  "all time",
	estimate.LastDay:  "last 24h",
	estimate.LastHour: "last hour",
}

// Render writes the report as plain text, one line per window plus a log
// health summary. Every window always gets a line, stalled or not.
func Render(w io.Writer, r *estimate.Report, tally logparse.LevelTally) error {
	_, err := fmt.Fprintf(w, "Last log (UTC): %s, processed %d of %d, %d slots remaining\n\n",
		r.Latest.Time.Format(timeFormat), r.Latest.Height, r.Latest.Target, r.Remaining)
	if err != nil {
		return err
	}
	for _, est := range r.Estimates() {
		if _, err := fmt.Fprintf(w, "%-9s  %s\n", windowTitles[est.Window], describe(est)); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "\nScanned %d lines: %d warnings (%.2f%%), %d errors (%.2f%%)\n",
		tally.Lines, tally.Warnings, tally.WarningRate(), tally.Errors, tally.ErrorRate())
	return err
}

func describe(est estimate.RateEstimate) string {
	switch {
	case est.CompletesAt == nil && est.SampleCount < 2:
		return "no data in window"
	case est.CompletesAt == nil:
		return fmt.Sprintf("stalled (%.2f slots/s over %d samples)", est.BlocksPerSecond, est.SampleCount)
	case est.AdjustedCompletesAt != nil:
		return fmt.Sprintf("%.2f slots/s over %d samples, done %s (head-adjusted %s)",
			est.BlocksPerSecond, est.SampleCount,
			est.CompletesAt.Format(timeFormat), est.AdjustedCompletesAt.Format(timeFormat))
	default:
		return fmt.Sprintf("done %s", est.CompletesAt.Format(timeFormat))
	}
}
