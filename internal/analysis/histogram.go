package analysis

import (
	"math"
	"strconv"

	"github.com/KaramelBytes/chefscore-cli/internal/roster"
)

// DefaultBuckets is used when a histogram is requested with fewer than one bucket.
const DefaultBuckets = 10

// Bucket is one histogram bin covering [Start, End].
type Bucket struct {
	Label string  `json:"rangeLabel"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// Histogram bins column values into exactly bucketCount buckets of width
// max(1, ceil((max-min)/bucketCount)). Values missing from a record count
// as 0. Counts always sum to len(records).
func Histogram(records []roster.PlayerRecord, column string, bucketCount int) []Bucket {
	if bucketCount < 1 {
		bucketCount = DefaultBuckets
	}
	vals := columnValues(records, column)
	var lo, hi float64
	for i, v := range vals {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	width := math.Max(1, math.Ceil((hi-lo)/float64(bucketCount)))

	buckets := make([]Bucket, bucketCount)
	for i := range buckets {
		start := lo + float64(i)*width
		end := start + width - 1
		buckets[i] = Bucket{Start: start, End: end, Label: formatNum(start) + " - " + formatNum(end)}
	}
	for _, v := range vals {
		idx := int(math.Floor((v - lo) / width))
		if idx < 0 {
			idx = 0
		} else if idx > bucketCount-1 {
			idx = bucketCount - 1
		}
		buckets[idx].Count++
	}
	return buckets
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
