package roster

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// NoThousandsSeparator disables thousands-separator stripping.
const NoThousandsSeparator rune = -1

// Options controls how raw exports are normalized.
type Options struct {
	// Delimiter for CSV. If 0, auto-detects among ',', ';', '\t' from the header line.
	Delimiter rune
	// ThousandsSeparator is stripped from numeric cells. Defaults to ','.
	// NoThousandsSeparator strips nothing.
	ThousandsSeparator rune
	// DecimalSeparator defaults to '.'.
	DecimalSeparator rune
	// Logger receives one warning per rejected row. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the separators used by the game's own exports.
func DefaultOptions() Options {
	return Options{ThousandsSeparator: ',', DecimalSeparator: '.'}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// rowSource yields the next data row and its 1-based line, or io.EOF.
type rowSource func() ([]string, int, error)

// IngestFile normalizes an export on disk, choosing the reader by extension.
func IngestFile(path string, opt Options) (*Collection, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return IngestXLSX(path, "", opt)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()
	return Ingest(f, opt)
}

// Ingest parses delimited text whose first row is the header. On error the
// returned collection is nil.
func Ingest(r io.Reader, opt Options) (*Collection, error) {
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
	// width is checked per row so blank rows can be skipped first
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return NewCollection(nil, nil), nil
		}
		return nil, wrapCSVError(err)
	}
	header = append([]string(nil), header...)

	next := func() ([]string, int, error) {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, 0, io.EOF
			}
			return nil, 0, wrapCSVError(err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != len(header) && !allEmpty(rec) {
			return nil, 0, &ParseError{Line: line, Err: ErrRaggedRow}
		}
		return rec, line, nil
	}
	return normalize(header, next, opt)
}

func wrapCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: err}
	}
	return &ParseError{Err: err}
}

// normalize maps each row positionally onto header and coerces cells.
func normalize(header []string, next rowSource, opt Options) (*Collection, error) {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}
	c := &Collection{columns: cols, categories: categoryKeys(cols)}
	log := opt.logger()

	for {
		row, line, err := next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if allEmpty(row) {
			continue
		}
		if len(row) > len(cols) {
			return nil, &ParseError{Line: line, Err: ErrRaggedRow}
		}
		rec := PlayerRecord{Categories: make(map[string]float64, len(c.categories))}
		for _, k := range c.categories {
			rec.Categories[k] = 0
		}
		for j, name := range cols {
			var cell string
			if j < len(row) {
				cell = row[j]
			}
			switch name {
			case ColPlayer:
				rec.Name = strings.TrimSpace(cell)
			case ColTotalScore:
				rec.TotalScore, _ = parseNumber(cell, opt)
			case ColChestCount:
				rec.ChestCount, _ = parseNumber(cell, opt)
			default:
				rec.Categories[name], _ = parseNumber(cell, opt)
			}
		}
		if rec.Name == "" {
			rej := RowRejection{Line: line, Reason: "empty player name"}
			c.rejected = append(c.rejected, rej)
			log.Warn("row rejected", zap.Int("line", rej.Line), zap.String("reason", rej.Reason))
			continue
		}
		c.records = append(c.records, rec)
	}
	return c, nil
}

func allEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseNumber strips whitespace and thousands separators and parses the
// remainder. Anything unparseable, NaN or infinite yields (0, false).
func parseNumber(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	thou := opt.ThousandsSeparator
	if thou == 0 {
		thou = ','
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	raw = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		}
		if thou != NoThousandsSeparator && r == thou && r != dec {
			return -1
		}
		return r
	}, raw)
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
