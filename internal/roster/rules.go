package roster

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/chefscore-cli/internal/ranking"
)

// Rule table columns, matched case-insensitively.
const (
	RuleColType   = "TYPE"
	RuleColLevel  = "LEVEL"
	RuleColPoints = "POINTS"
)

// ScoreRule states how many points a chest type at a given level awards.
type ScoreRule struct {
	Type   string  `json:"type"`
	Level  float64 `json:"level"`
	Points float64 `json:"points"`
}

// SortKey implements ranking.Keyed. The type column is a label column.
func (r ScoreRule) SortKey(column string) (ranking.Key, bool) {
	switch strings.ToUpper(strings.TrimSpace(column)) {
	case RuleColType:
		return ranking.LabelKey(r.Type), true
	case RuleColLevel:
		return ranking.NumberKey(r.Level), true
	case RuleColPoints:
		return ranking.NumberKey(r.Points), true
	}
	return ranking.Key{}, false
}

// IngestRules parses a rule table. Rows without a type are skipped.
func IngestRules(r io.Reader, opt Options) ([]ScoreRule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("read input: %w", err)}
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data)
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, wrapCSVError(err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	typeIdx, ok := idx[RuleColType]
	if !ok {
		return nil, &ParseError{Line: 1, Err: fmt.Errorf("missing %s column", RuleColType)}
	}

	var rules []ScoreRule
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, wrapCSVError(err)
		}
		rule := ScoreRule{Type: strings.TrimSpace(rec[typeIdx])}
		if rule.Type == "" {
			continue
		}
		if i, ok := idx[RuleColLevel]; ok {
			rule.Level, _ = parseNumber(rec[i], opt)
		}
		if i, ok := idx[RuleColPoints]; ok {
			rule.Points, _ = parseNumber(rec[i], opt)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
