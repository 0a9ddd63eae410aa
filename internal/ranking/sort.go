package ranking

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction is the ordering applied by Sort.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts asc|ascending|desc|descending (case-insensitive).
// An empty string means Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Asc, nil
	case "desc", "descending":
		return Desc, nil
	default:
		return "", fmt.Errorf("invalid sort direction: %q (use asc or desc)", s)
	}
}

// Spec names the column to order by and the direction.
type Spec struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// Key is the comparable value of one item for one column. Label keys are
// compared with the collator, numeric keys by value.
type Key struct {
	Label   string
	Number  float64
	IsLabel bool
}

// LabelKey builds a string key.
func LabelKey(s string) Key { return Key{Label: s, IsLabel: true} }

// NumberKey builds a numeric key.
func NumberKey(v float64) Key { return Key{Number: v} }

// Keyed is implemented by anything the engine can order. The bool result is
// false when the item has no value for column.
type Keyed interface {
	SortKey(column string) (Key, bool)
}

// Options carries per-call sort settings.
type Options struct {
	// Language selects the collation for label columns. The zero value
	// (language.Und) uses the root collation.
	Language language.Tag
}

// Sort returns a stably ordered copy of items. The first item decides whether
// column exists at all; when it does not, the copy is returned in input
// order. Items missing a numeric value compare as 0.
func Sort[T Keyed](items []T, spec Spec, opt Options) []T {
	out := make([]T, len(items))
	copy(out, items)
	if len(out) == 0 {
		return out
	}
	probe, ok := out[0].SortKey(spec.Column)
	if !ok {
		return out
	}

	keys := make([]Key, len(out))
	for i, it := range out {
		k, ok := it.SortKey(spec.Column)
		if !ok {
			k = Key{IsLabel: probe.IsLabel}
		}
		keys[i] = k
	}

	var col *collate.Collator
	if probe.IsLabel {
		col = collate.New(opt.Language, collate.IgnoreCase)
	}
	sign := 1
	if spec.Direction == Desc {
		sign = -1
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return sign * compareKeys(col, keys[a], keys[b])
	})

	sorted := make([]T, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

func compareKeys(col *collate.Collator, a, b Key) int {
	if col != nil {
		return col.CompareString(a.Label, b.Label)
	}
	switch {
	case a.Number < b.Number:
		return -1
	case a.Number > b.Number:
		return 1
	default:
		return 0
	}
}
