// Package transport supplies raw weekly exports from a URL or a directory.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Source yields the raw export for a week identifier such as 2024-W05.
// Implementations return either the complete payload or an error, never
// partial data.
type Source interface {
	Fetch(ctx context.Context, week string) ([]byte, error)
}

// Extensions are tried in order when looking up a week on disk.
var Extensions = []string{".csv", ".xlsx"}

// FileSource reads <Dir>/<week>.csv or <Dir>/<week>.xlsx.
type FileSource struct {
	Dir string
}

// Fetch implements Source.
func (s FileSource) Fetch(ctx context.Context, week string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Week: week, Source: s.Dir, Err: err}
	}
	if week == "" || filepath.Base(week) != week {
		return nil, &Error{Week: week, Source: s.Dir, Err: fmt.Errorf("invalid week identifier %q", week)}
	}
	for _, ext := range Extensions {
		data, err := os.ReadFile(filepath.Join(s.Dir, week+ext))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Week: week, Source: s.Dir, Err: err}
		}
	}
	return nil, &Error{Week: week, Source: s.Dir, Err: ErrNotFound}
}
