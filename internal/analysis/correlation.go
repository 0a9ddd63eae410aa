package analysis

import (
	"math"
	"slices"

	"github.com/KaramelBytes/chefscore-cli/internal/roster"
)

// MaxCorrelationKeys bounds the pairwise computation.
const MaxCorrelationKeys = 10

// CorrMatrix holds a symmetric Pearson correlation matrix across category columns.
type CorrMatrix struct {
	Columns []string    `json:"keys"`
	Values  [][]float64 `json:"matrix"` // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// Correlate computes population Pearson coefficients between every pair of
// category keys. With more than MaxCorrelationKeys keys only the largest by
// summed value are kept. The diagonal is exactly 1; a zero-variance series
// correlates 0 with everything else.
func Correlate(records []roster.PlayerRecord, categoryKeys []string) CorrMatrix {
	keys := correlationKeys(records, categoryKeys)
	n := len(keys)
	series := make([][]float64, n)
	for i, k := range keys {
		series[i] = columnValues(records, k)
	}
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		mat[a][a] = 1
		for b := a + 1; b < n; b++ {
			r := pearson(series[a], series[b])
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	return CorrMatrix{Columns: keys, Values: mat}
}

func correlationKeys(records []roster.PlayerRecord, categoryKeys []string) []string {
	keys := append([]string{}, categoryKeys...)
	if len(keys) <= MaxCorrelationKeys {
		return keys
	}
	sums := categorySums(records, keys)
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case sums[a] > sums[b]:
			return -1
		case sums[a] < sums[b]:
			return 1
		}
		return 0
	})
	out := make([]string, MaxCorrelationKeys)
	for i := range out {
		out[i] = keys[idx[i]]
	}
	return out
}

func pearson(x, y []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return 0
	}
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= n
	my /= n
	var cov, vx, vy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	// population normalization cancels; divide sums directly
	r := cov / math.Sqrt(vx*vy)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// TopPairs lists the off-diagonal pairs ordered by |r|, strongest first.
// n <= 0 returns all pairs.
func TopPairs(m CorrMatrix, n int) []PairCorr {
	var pairs []PairCorr
	k := len(m.Columns)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	slices.SortStableFunc(pairs, func(p, q PairCorr) int {
		ap, aq := math.Abs(p.R), math.Abs(q.R)
		switch {
		case ap > aq:
			return -1
		case ap < aq:
			return 1
		}
		return 0
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}
