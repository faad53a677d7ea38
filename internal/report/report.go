package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/reviewpulse/internal/models"
	"github.com/spacesedan/reviewpulse/internal/stats"
)

// Markdown renders a run summary as a markdown document: one section per
// backend, then the agreement rate when both backends ran.
func Markdown(run models.RunSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Sentiment Analysis Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", run.RunID)
	fmt.Fprintf(&b, "- Input: `%s`\n", run.InputPath)
	fmt.Fprintf(&b, "- Reviews: %d\n", run.Rows)
	if !run.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- Generated: %s\n", run.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}

	backends := make([]string, 0, len(run.Backends))
	for name := range run.Backends {
		backends = append(backends, name)
	}
	sort.Strings(backends)

	for _, name := range backends {
		summary := run.Backends[name]
		fmt.Fprintf(&b, "\n## %s\n\n", strings.ToUpper(name))
		b.WriteString("| Label | Count | Share |\n|---|---:|---:|\n")
		for _, lc := range summary.Distribution {
			fmt.Fprintf(&b, "| %s | %d | %s |\n", lc.Label, lc.Count, stats.FormatPercent(lc.Percent))
		}

		if len(summary.Groups) > 0 {
			b.WriteString("\n| Bank | Reviews | Positive | Negative |\n|---|---:|---:|---:|\n")
			for _, g := range summary.Groups {
				fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", escapeCell(g.Group), g.Total,
					stats.FormatPercent(g.PositivePercent), stats.FormatPercent(g.NegativePercent))
			}
		}
	}

	if len(run.Backends) > 1 {
		fmt.Fprintf(&b, "\n## Agreement\n\nThe backends agree on %s of reviews.\n",
			stats.FormatPercent(run.AgreementRate*100))
	}

	return b.String()
}

func HTML(markdown string) []byte {
	return blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(blackfriday.CommonExtensions))
}

// Write stores the markdown and HTML reports for run in dir and returns the
// markdown path.
func Write(dir string, run models.RunSummary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	md := Markdown(run)
	base := filepath.Join(dir, "sentiment_report_"+run.RunID)

	if err := os.WriteFile(base+".md", []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.WriteFile(base+".html", HTML(md), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	slog.Info("[Report] Report written", slog.String("path", base+".md"))
	return base + ".md", nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
