// Package roster turns tabular clan exports into typed player records.
package roster

import (
	"encoding/json"

	"github.com/KaramelBytes/chefscore-cli/internal/ranking"
)

// Core column names. Every other header is a category column.
const (
	ColPlayer     = "PLAYER"
	ColTotalScore = "TOTAL_SCORE"
	ColChestCount = "CHEST_COUNT"
)

// IsCore reports whether name is one of the three core columns.
func IsCore(name string) bool {
	return name == ColPlayer || name == ColTotalScore || name == ColChestCount
}

// PlayerRecord is one normalized row of an export.
type PlayerRecord struct {
	Name       string             `json:"name"`
	TotalScore float64            `json:"totalScore"`
	ChestCount float64            `json:"chestCount"`
	Categories map[string]float64 `json:"categories"`
}

// Value returns the numeric value of a non-label column.
func (r PlayerRecord) Value(column string) (float64, bool) {
	switch column {
	case ColTotalScore:
		return r.TotalScore, true
	case ColChestCount:
		return r.ChestCount, true
	case ColPlayer:
		return 0, false
	}
	v, ok := r.Categories[column]
	return v, ok
}

// SortKey implements ranking.Keyed.
func (r PlayerRecord) SortKey(column string) (ranking.Key, bool) {
	if column == ColPlayer {
		return ranking.LabelKey(r.Name), true
	}
	v, ok := r.Value(column)
	return ranking.NumberKey(v), ok
}

func (r PlayerRecord) clone() PlayerRecord {
	cats := make(map[string]float64, len(r.Categories))
	for k, v := range r.Categories {
		cats[k] = v
	}
	r.Categories = cats
	return r
}

// RowRejection describes a row dropped during ingestion.
type RowRejection struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Collection is an immutable, ordered set of records together with the
// schema discovered at ingestion. Methods never hand out internal slices.
type Collection struct {
	records    []PlayerRecord
	columns    []string
	categories []string
	rejected   []RowRejection
}

// NewCollection builds a collection from already-normalized records. Each
// record's categories are reconciled with categoryKeys: unknown keys are
// dropped and missing keys are set to 0.
func NewCollection(columns []string, records []PlayerRecord) *Collection {
	c := &Collection{columns: append([]string(nil), columns...)}
	c.categories = categoryKeys(c.columns)
	c.records = make([]PlayerRecord, len(records))
	for i, r := range records {
		cats := make(map[string]float64, len(c.categories))
		for _, k := range c.categories {
			cats[k] = r.Categories[k]
		}
		r.Categories = cats
		c.records[i] = r
	}
	return c
}

func categoryKeys(columns []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, name := range columns {
		if IsCore(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Len returns the number of records.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Records returns a deep copy of the records in collection order.
func (c *Collection) Records() []PlayerRecord {
	if c == nil {
		return nil
	}
	out := make([]PlayerRecord, len(c.records))
	for i, r := range c.records {
		out[i] = r.clone()
	}
	return out
}

// Columns returns the full header list in source order.
func (c *Collection) Columns() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.columns...)
}

// CategoryKeys returns the non-core column names in source order.
func (c *Collection) CategoryKeys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.categories...)
}

// Rejected lists rows dropped during ingestion.
func (c *Collection) Rejected() []RowRejection {
	if c == nil {
		return nil
	}
	return append([]RowRejection(nil), c.rejected...)
}

// HasColumn reports whether name was present in the header.
func (c *Collection) HasColumn(name string) bool {
	if c == nil {
		return false
	}
	for _, col := range c.columns {
		if col == name {
			return true
		}
	}
	return false
}

// Sorted returns a new collection whose records are ordered by spec.
func (c *Collection) Sorted(spec ranking.Spec, opt ranking.Options) *Collection {
	if c == nil {
		return nil
	}
	return &Collection{
		records:    ranking.Sort(c.Records(), spec, opt),
		columns:    c.Columns(),
		categories: c.CategoryKeys(),
		rejected:   c.Rejected(),
	}
}

type collectionJSON struct {
	Columns      []string       `json:"columns"`
	CategoryKeys []string       `json:"categoryKeys"`
	Records      []PlayerRecord `json:"records"`
	Rejected     []RowRejection `json:"rejected,omitempty"`
}

// MarshalJSON exposes the collection as a plain structure.
func (c *Collection) MarshalJSON() ([]byte, error) {
	recs := c.records
	if recs == nil {
		recs = []PlayerRecord{}
	}
	return json.Marshal(collectionJSON{
		Columns:      nonNil(c.columns),
		CategoryKeys: nonNil(c.categories),
		Records:      recs,
		Rejected:     c.rejected,
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
