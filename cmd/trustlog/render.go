package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cochaviz/collaborative-agent/internal/persistence"
)

// newerThan returns the suffix of hist whose IDs are above after. hist is
// oldest first.
func newerThan(hist []persistence.TrustSnapshot, after int64) []persistence.TrustSnapshot {
	for i, s := range hist {
		if s.ID > after {
			return hist[i:]
		}
	}
	return nil
}

// writeHistory prints hist[from:], using hist[from-1] (when present) as the
// baseline for score changes.
func writeHistory(w io.Writer, agentID string, hist []persistence.TrustSnapshot, from int, now time.Time) {
	var prev map[string]float64
	if from > 0 {
		prev = hist[from-1].Scores
	}
	for _, snap := range hist[from:] {
		fmt.Fprintf(w, "%s  tick %s  %s\n",
			agentID,
			humanize.Comma(int64(snap.Tick)),
			humanize.RelTime(snap.Recorded(), now, "ago", "from now"),
		)

		names := make([]string, 0, len(snap.Scores))
		for name := range snap.Scores {
			names = append(names, name)
		}
		sort.Strings(names)

		var b strings.Builder
		for _, name := range names {
			score := snap.Scores[name]
			fmt.Fprintf(&b, "    %-10s %.2f", name, score)
			if old, ok := prev[name]; ok && old != score {
				fmt.Fprintf(&b, " (%+.2f)", score-old)
			}
			b.WriteByte('\n')
		}
		io.WriteString(w, b.String())
		prev = snap.Scores
	}
}
