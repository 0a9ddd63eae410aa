package analysis

import (
	"github.com/KaramelBytes/chefscore-cli/internal/ranking"
	"github.com/KaramelBytes/chefscore-cli/internal/roster"
)

// MaxCurveGroups caps how many points a contribution curve carries.
const MaxCurveGroups = 20

// CurvePoint says that the top PlayersPercent of players hold ScorePercent
// of the clan's score.
type CurvePoint struct {
	PlayersPercent float64 `json:"playersPercent"`
	ScorePercent   float64 `json:"scorePercent"`
}

// EqualityLine is the perfect-equality reference diagonal.
func EqualityLine() []CurvePoint {
	return []CurvePoint{{0, 0}, {20, 20}, {40, 40}, {60, 60}, {80, 80}, {100, 100}}
}

// ContributionCurve orders players by total score, highest first, and emits
// one cumulative point per group. Negative scores count as zero so the
// curve never falls. The last point is always (100, 100).
func ContributionCurve(records []roster.PlayerRecord) []CurvePoint {
	n := len(records)
	if n == 0 {
		return []CurvePoint{{100, 100}}
	}
	sorted := ranking.Sort(records, ranking.Spec{Column: roster.ColTotalScore, Direction: ranking.Desc}, ranking.Options{})

	var total float64
	for _, r := range sorted {
		total += max(r.TotalScore, 0)
	}

	groupSize := n / MaxCurveGroups
	if groupSize < 1 {
		groupSize = 1
	}
	points := make([]CurvePoint, 0, MaxCurveGroups+1)
	var cum float64
	for start := 0; start < n; start += groupSize {
		end := start + groupSize
		// the final group absorbs the remainder
		if len(points) == MaxCurveGroups-1 || end > n {
			end = n
		}
		for _, r := range sorted[start:end] {
			cum += max(r.TotalScore, 0)
		}
		p := CurvePoint{PlayersPercent: float64(end) / float64(n) * 100}
		if total != 0 {
			p.ScorePercent = cum / total * 100
		}
		points = append(points, p)
		if end == n {
			break
		}
	}

	// the final group ends at n; absorb rounding drift in ScorePercent
	points[len(points)-1] = CurvePoint{100, 100}
	return points
}
