package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/chefscore-cli/internal/roster"
)

// Report is a markdown-friendly view of one week's snapshot.
type Report struct {
	Name     string                `json:"name,omitempty"`
	Week     string                `json:"week,omitempty"`
	Snapshot Snapshot              `json:"snapshot"`
	Ranking  []roster.PlayerRecord `json:"ranking,omitempty"`
	Rejected []roster.RowRejection `json:"rejected,omitempty"`
	// TopPairs limits the correlation section; 0 means 10.
	TopPairs int `json:"-"`
}

// NewReport builds a report for c with its records in display order.
func NewReport(name string, c *roster.Collection, opt SnapshotOptions) *Report {
	return &Report{
		Name:     name,
		Snapshot: BuildSnapshot(c, opt),
		Ranking:  c.Records(),
		Rejected: c.Rejected(),
	}
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	m := r.Snapshot.ClanMetrics
	b.WriteString("[CLAN SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Week != "" {
		b.WriteString(fmt.Sprintf("Week: %s\n", r.Week))
	}
	b.WriteString(fmt.Sprintf("Players: %d\n", m.TotalPlayers))
	b.WriteString(fmt.Sprintf("Total score: %s\n", formatNum(m.TotalScore)))
	b.WriteString(fmt.Sprintf("Average score: %.2f\n", m.AverageScore))
	b.WriteString(fmt.Sprintf("Total chests: %s\n", formatNum(m.TotalChests)))

	if len(m.CategoryBreakdown) > 0 {
		b.WriteString("\n[CATEGORY BREAKDOWN]\n")
		for _, s := range m.CategoryBreakdown {
			b.WriteString(fmt.Sprintf("- %s: %s (%.1f%%)\n", safeName(s.Category), formatNum(s.Total), s.Percent))
		}
	}

	if len(r.Snapshot.CorrelationMatrix.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		limit := r.TopPairs
		if limit <= 0 {
			limit = 10
		}
		for _, p := range TopPairs(r.Snapshot.CorrelationMatrix, limit) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", safeName(p.A), safeName(p.B), p.R))
		}
	}

	if len(r.Snapshot.ContributionCurve) > 0 {
		b.WriteString("\n[CONTRIBUTION CURVE]\n")
		for _, p := range r.Snapshot.ContributionCurve {
			b.WriteString(fmt.Sprintf("- top %.1f%% of players: %.1f%% of score\n", p.PlayersPercent, p.ScorePercent))
		}
	}

	if len(r.Snapshot.CategoryHistogram) > 0 {
		col := r.Snapshot.HistogramColumn
		if col == "" {
			col = roster.ColTotalScore
		}
		b.WriteString(fmt.Sprintf("\n[HISTOGRAM] %s\n", safeName(col)))
		for _, bk := range r.Snapshot.CategoryHistogram {
			b.WriteString(fmt.Sprintf("- %s: %d\n", bk.Label, bk.Count))
		}
	}

	if len(r.Ranking) > 0 {
		b.WriteString("\n[RANKING]\n")
		b.WriteString("| # | PLAYER | TOTAL_SCORE | CHEST_COUNT |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for i, p := range r.Ranking {
			b.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", i+1, safeVal(p.Name), formatNum(p.TotalScore), formatNum(p.ChestCount)))
		}
	}

	if len(r.Rejected) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, rej := range r.Rejected {
			b.WriteString(fmt.Sprintf("- line %d skipped: %s\n", rej.Line, rej.Reason))
		}
	}
	return b.String()
}

// safeName labels blank category names.
func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

// safeVal keeps a value on one markdown table row.
func safeVal(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
