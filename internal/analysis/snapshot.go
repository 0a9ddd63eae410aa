package analysis

import (
	"github.com/KaramelBytes/chefscore-cli/internal/roster"
)

// SnapshotOptions selects the histogram column and bucket count.
type SnapshotOptions struct {
	HistogramColumn string
	Buckets         int
}

// DefaultSnapshotOptions histograms TOTAL_SCORE into DefaultBuckets buckets.
func DefaultSnapshotOptions() SnapshotOptions {
	return SnapshotOptions{HistogramColumn: roster.ColTotalScore, Buckets: DefaultBuckets}
}

// Snapshot bundles every derived view of one collection. It is recomputed
// whenever the collection changes, never updated in place.
type Snapshot struct {
	ClanMetrics       ClanMetrics  `json:"clanMetrics"`
	CorrelationMatrix CorrMatrix   `json:"correlationMatrix"`
	ContributionCurve []CurvePoint `json:"contributionCurve"`
	EqualityLine      []CurvePoint `json:"equalityLine"`
	HistogramColumn   string       `json:"histogramColumn"`
	CategoryHistogram []Bucket     `json:"categoryHistogram"`
}

// BuildSnapshot computes all analytics for c.
func BuildSnapshot(c *roster.Collection, opt SnapshotOptions) Snapshot {
	if opt.HistogramColumn == "" {
		opt.HistogramColumn = roster.ColTotalScore
	}
	recs := c.Records()
	keys := c.CategoryKeys()
	return Snapshot{
		ClanMetrics:       Aggregate(recs, keys),
		CorrelationMatrix: Correlate(recs, keys),
		ContributionCurve: ContributionCurve(recs),
		EqualityLine:      EqualityLine(),
		HistogramColumn:   opt.HistogramColumn,
		CategoryHistogram: Histogram(recs, opt.HistogramColumn, opt.Buckets),
	}
}
