package stats

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spacesedan/reviewpulse/internal/models"
)

var ErrLengthMismatch = errors.New("label columns differ in length")

// Summarize computes the label distribution over labels and, when groups is
// non-nil, the positive/negative share per group. groups[i] is the group of
// labels[i]. Distribution is ordered by count (desc) then label; groups keep
// the order in which they first appear.
func Summarize(labels []string, groups []string) models.Summary {
	summary := models.Summary{Total: len(labels)}
	if len(labels) == 0 {
		return summary
	}

	counts := make(map[string]int)
	for _, label := range labels {
		counts[label]++
	}
	for label, count := range counts {
		summary.Distribution = append(summary.Distribution, models.LabelCount{
			Label:   label,
			Count:   count,
			Percent: percent(count, len(labels)),
		})
	}
	sort.Slice(summary.Distribution, func(i, j int) bool {
		a, b := summary.Distribution[i], summary.Distribution[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Label < b.Label
	})

	if groups != nil {
		summary.Groups = groupBreakdown(labels, groups)
	}

	return summary
}

func groupBreakdown(labels []string, groups []string) []models.GroupSummary {
	type tally struct{ total, pos, neg int }

	var order []string
	tallies := make(map[string]*tally)
	for i, group := range groups {
		if i >= len(labels) {
			break
		}
		t, ok := tallies[group]
		if !ok {
			t = &tally{}
			tallies[group] = t
			order = append(order, group)
		}
		t.total++
		switch models.Label(labels[i]) {
		case models.LabelPositive:
			t.pos++
		case models.LabelNegative:
			t.neg++
		}
	}

	out := make([]models.GroupSummary, 0, len(order))
	for _, group := range order {
		t := tallies[group]
		out = append(out, models.GroupSummary{
			Group:           group,
			Total:           t.total,
			PositivePercent: percent(t.pos, t.total),
			NegativePercent: percent(t.neg, t.total),
		})
	}
	return out
}

// AgreementRate is the fraction of rows where a[i] == b[i] exactly. A lexicon
// NEUTRAL never matches the two-class model output and counts as disagreement.
func AgreementRate(a, b []string) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}

	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a)), nil
}

// LogSummary reports a summary the way a batch run prints it.
func LogSummary(backend string, summary models.Summary) {
	slog.Info("[Summary] Overall sentiment distribution",
		slog.String("backend", backend),
		slog.Int("total", summary.Total))

	for _, lc := range summary.Distribution {
		slog.Info("[Summary] Label",
			slog.String("backend", backend),
			slog.String("label", lc.Label),
			slog.Int("count", lc.Count),
			slog.String("percent", FormatPercent(lc.Percent)))
	}

	for _, g := range summary.Groups {
		slog.Info("[Summary] Sentiment by group",
			slog.String("backend", backend),
			slog.String("group", g.Group),
			slog.String("positive", FormatPercent(g.PositivePercent)),
			slog.String("negative", FormatPercent(g.NegativePercent)))
	}
}

// FormatPercent renders a percentage with one decimal, e.g. "70.0%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
