package roster

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte("PK\x03\x04")

// IngestBytes normalizes an export held in memory, detecting XLSX by its
// ZIP signature and treating anything else as delimited text.
func IngestBytes(data []byte, opt Options) (*Collection, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return IngestXLSXReader(bytes.NewReader(data), "", opt)
	}
	return Ingest(bytes.NewReader(data), opt)
}

// IngestXLSX reads a workbook from disk. An empty sheet selects the first sheet.
func IngestXLSX(path, sheet string, opt Options) (*Collection, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("open xlsx: %w", err)}
	}
	defer f.Close()
	return ingestWorkbook(f, sheet, opt)
}

// IngestXLSXReader reads a workbook from r.
func IngestXLSXReader(r io.Reader, sheet string, opt Options) (*Collection, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("open xlsx: %w", err)}
	}
	defer f.Close()
	return ingestWorkbook(f, sheet, opt)
}

func ingestWorkbook(f *excelize.File, sheet string, opt Options) (*Collection, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return NewCollection(nil, nil), nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	if len(rows) == 0 {
		return NewCollection(nil, nil), nil
	}
	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	i := 0
	next := func() ([]string, int, error) {
		i++
		if i >= len(rows) {
			return nil, 0, io.EOF
		}
		// excelize trims trailing empty cells, so short rows are padded by normalize.
		return rows[i], i + 1, nil
	}
	return normalize(header, next, opt)
}
