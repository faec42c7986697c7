package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prepairo/adpulse/internal/attribution"
	"github.com/prepairo/adpulse/internal/models"
)

// Summary is everything one report cycle produced for one account,
// ready to be rendered and delivered.
type Summary struct {
	AccountID string
	Since     time.Time
	Until     time.Time

	Deltas      map[string]models.Delta
	Significant []models.Delta
	Installs    attribution.Breakdown

	// Countries counts installs per resolved signup country. Empty when
	// geo enrichment is disabled or no IP resolved.
	Countries map[string]int

	// TrendNote is set when period-over-period data could not be
	// produced, e.g. the snapshot store was unreachable.
	TrendNote string
}

// SignificantChanges returns deltas whose relative change crosses the
// threshold, plus zero-baseline growth. When window spend is below the
// floor the account is too small for percentage swings to mean anything,
// so nothing is flagged.
func SignificantChanges(deltas map[string]models.Delta, thresholdPct, spendFloor float64) []models.Delta {
	if spend, ok := deltas["spend"]; ok && spend.Current < spendFloor {
		return nil
	}

	var flagged []models.Delta
	for _, d := range deltas {
		if d.FromZero {
			flagged = append(flagged, d)
			continue
		}
		if d.Percent != nil && abs(*d.Percent) >= thresholdPct {
			flagged = append(flagged, d)
		}
	}
	sort.Slice(flagged, func(i, j int) bool { return flagged[i].Metric < flagged[j].Metric })
	return flagged
}

// RenderText renders the summary as the plain-text message that goes to
// Slack. Output ordering is deterministic so repeated runs over the same
// data produce identical messages.
func RenderText(s Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "AdPulse report for %s\n", s.AccountID)
	fmt.Fprintf(&b, "Window: %s to %s\n",
		s.Since.UTC().Format("2006-01-02 15:04"),
		s.Until.UTC().Format("2006-01-02 15:04 MST"))

	if s.TrendNote != "" {
		fmt.Fprintf(&b, "Note: %s\n", s.TrendNote)
	}

	b.WriteString("\nMetrics:\n")
	for _, name := range sortedMetricNames(s.Deltas) {
		fmt.Fprintf(&b, "  %s: %s\n", name, formatDelta(s.Deltas[name]))
	}

	if len(s.Significant) > 0 {
		b.WriteString("\nSignificant changes:\n")
		for _, d := range s.Significant {
			fmt.Fprintf(&b, "  ! %s: %s\n", d.Metric, formatDelta(d))
		}
	}

	if s.Installs.Total > 0 {
		fmt.Fprintf(&b, "\nInstalls by channel (%d total):\n", s.Installs.Total)
		for _, cc := range s.Installs.SortedChannels() {
			fmt.Fprintf(&b, "  %s: %d\n", cc.Channel, cc.Count)
		}
		if len(s.Installs.ByCampaign) > 0 {
			b.WriteString("Top campaigns:\n")
			for _, kv := range sortedCounts(s.Installs.ByCampaign) {
				fmt.Fprintf(&b, "  %s: %d\n", kv.name, kv.count)
			}
		}
		if len(s.Countries) > 0 {
			b.WriteString("Installs by country:\n")
			for _, kv := range sortedCounts(s.Countries) {
				fmt.Fprintf(&b, "  %s: %d\n", kv.name, kv.count)
			}
		}
	}

	return b.String()
}

// formatDelta renders one metric line: the current value, then the trend
// when a baseline exists.
func formatDelta(d models.Delta) string {
	cur := formatValue(d.Current)

	switch {
	case d.Previous == nil:
		return cur + " (no prior data)"
	case d.FromZero:
		return fmt.Sprintf("%s (up from 0)", cur)
	case d.Percent == nil:
		// Zero baseline and still zero.
		return cur + " (no change)"
	default:
		return fmt.Sprintf("%s (%s, %s%%)", cur, formatSigned(*d.Absolute), formatSigned(*d.Percent))
	}
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func formatSigned(v float64) string {
	if v >= 0 {
		return "+" + formatValue(v)
	}
	return formatValue(v)
}

func sortedMetricNames(deltas map[string]models.Delta) []string {
	names := make([]string, 0, len(deltas))
	for name := range deltas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type nameCount struct {
	name  string
	count int
}

func sortedCounts(byName map[string]int) []nameCount {
	out := make([]nameCount, 0, len(byName))
	for name, count := range byName {
		out = append(out, nameCount{name, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
