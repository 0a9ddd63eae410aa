// Package analysis derives clan-level statistics from a roster collection.
// Every function here is total over well-formed input: degenerate cases
// resolve to defined values and never produce NaN or Inf.
package analysis

import (
	"slices"

	"github.com/KaramelBytes/chefscore-cli/internal/roster"
)

// ClanMetrics summarizes one collection.
type ClanMetrics struct {
	TotalPlayers      int             `json:"totalPlayers"`
	TotalScore        float64         `json:"totalScore"`
	AverageScore      float64         `json:"averageScore"`
	TotalChests       float64         `json:"totalChests"`
	CategoryBreakdown []CategoryShare `json:"categoryBreakdown"`
}

// CategoryShare is the summed value of one category and its share of the
// clan's total score.
type CategoryShare struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Percent  float64 `json:"percent"`
}

// Aggregate computes clan totals. The breakdown is ordered by summed value,
// largest first; equal sums keep categoryKeys order.
func Aggregate(records []roster.PlayerRecord, categoryKeys []string) ClanMetrics {
	m := ClanMetrics{TotalPlayers: len(records), CategoryBreakdown: []CategoryShare{}}
	for _, r := range records {
		m.TotalScore += r.TotalScore
		m.TotalChests += r.ChestCount
	}
	if m.TotalPlayers > 0 {
		m.AverageScore = m.TotalScore / float64(m.TotalPlayers)
	}

	sums := categorySums(records, categoryKeys)
	for i, k := range categoryKeys {
		share := CategoryShare{Category: k, Total: sums[i]}
		if m.TotalScore != 0 {
			share.Percent = sums[i] / m.TotalScore * 100
		}
		m.CategoryBreakdown = append(m.CategoryBreakdown, share)
	}
	slices.SortStableFunc(m.CategoryBreakdown, func(a, b CategoryShare) int {
		switch {
		case a.Total > b.Total:
			return -1
		case a.Total < b.Total:
			return 1
		}
		return 0
	})
	return m
}

func categorySums(records []roster.PlayerRecord, keys []string) []float64 {
	sums := make([]float64, len(keys))
	for _, r := range records {
		for i, k := range keys {
			sums[i] += r.Categories[k]
		}
	}
	return sums
}

// columnValues extracts one column; absent values read as 0.
func columnValues(records []roster.PlayerRecord, column string) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		v, _ := r.Value(column)
		out[i] = v
	}
	return out
}
