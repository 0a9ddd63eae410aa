// Package dataset persists a named series of weekly clan exports on disk.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/chefscore-cli/internal/isoweek"
	"github.com/KaramelBytes/chefscore-cli/internal/roster"
	"github.com/KaramelBytes/chefscore-cli/internal/transport"
	"github.com/KaramelBytes/chefscore-cli/internal/utils"
	"github.com/google/uuid"
)

const weeksDirName = "weeks"

// Dataset is a clan's collection of weekly exports persisted on disk.
type Dataset struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Weeks       map[string]*WeekEntry `json:"weeks"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`

	// Not serialized: on-disk location of the dataset.json
	rootDir string `json:"-"`
}

// WeekEntry describes one stored export.
type WeekEntry struct {
	ID       string    `json:"id"`
	Week     string    `json:"week"`
	File     string    `json:"file"`
	Source   string    `json:"source"`
	Players  int       `json:"players"`
	Columns  []string  `json:"columns"`
	Rejected int       `json:"rejected"`
	AddedAt  time.Time `json:"added_at"`
}

// New constructs an in-memory dataset. Call Save() to persist.
func New(name, description, rootDir string) *Dataset {
	return &Dataset{
		Name:        name,
		Description: description,
		Weeks:       make(map[string]*WeekEntry),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		rootDir:     rootDir,
	}
}

// Load reads dataset.json from dir.
func Load(dir string) (*Dataset, error) {
	path := filepath.Join(dir, utils.DatasetFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dataset not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var d Dataset
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if d.Weeks == nil {
		d.Weeks = make(map[string]*WeekEntry)
	}
	d.rootDir = dir
	return &d, nil
}

// RootDir returns the on-disk dataset directory path.
func (d *Dataset) RootDir() string { return d.rootDir }

// Save writes dataset.json using atomic write.
func (d *Dataset) Save() error {
	if d.rootDir == "" {
		return errors.New("dataset root directory not set")
	}
	if err := utils.EnsureDir(d.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	d.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(d)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(d.rootDir, utils.DatasetFileName), data)
}

// AddWeek ingests the export at path and stores a copy under week. Nothing
// is recorded when the export fails to parse.
func (d *Dataset) AddWeek(path string, week isoweek.ID, opt roster.Options) (*WeekEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return d.AddWeekData(week, data, path, opt)
}

// AddWeekData stores raw export bytes under week, replacing any previous
// export for that week. source is recorded for display only.
func (d *Dataset) AddWeekData(week isoweek.ID, data []byte, source string, opt roster.Options) (*WeekEntry, error) {
	if d.rootDir == "" {
		return nil, errors.New("dataset root directory not set")
	}
	if !week.Valid() {
		return nil, fmt.Errorf("%w: %s", isoweek.ErrInvalidWeek, week)
	}
	c, err := roster.IngestBytes(data, opt)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", week, err)
	}

	ext := ".csv"
	if isWorkbook(data) {
		ext = ".xlsx"
	}
	rel := filepath.Join(weeksDirName, week.String()+ext)
	dir := filepath.Join(d.rootDir, weeksDirName)
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	if prev, ok := d.Weeks[week.String()]; ok && prev.File != rel {
		_ = os.Remove(filepath.Join(d.rootDir, prev.File))
	}
	if err := utils.SafeWriteFile(filepath.Join(d.rootDir, rel), data); err != nil {
		return nil, err
	}

	e := &WeekEntry{
		ID:       uuid.NewString(),
		Week:     week.String(),
		File:     rel,
		Source:   source,
		Players:  c.Len(),
		Columns:  c.Columns(),
		Rejected: len(c.Rejected()),
		AddedAt:  time.Now(),
	}
	if d.Weeks == nil {
		d.Weeks = make(map[string]*WeekEntry)
	}
	d.Weeks[e.Week] = e
	d.UpdatedAt = time.Now()
	return e, nil
}

// RemoveWeek forgets a week and deletes its stored export.
func (d *Dataset) RemoveWeek(week string) error {
	e, ok := d.Weeks[week]
	if !ok {
		return fmt.Errorf("week %s: %w", week, transport.ErrNotFound)
	}
	delete(d.Weeks, week)
	d.UpdatedAt = time.Now()
	if err := os.Remove(filepath.Join(d.rootDir, e.File)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove export: %w", err)
	}
	return nil
}

// List returns the stored weeks, oldest first.
func (d *Dataset) List() []*WeekEntry {
	out := make([]*WeekEntry, 0, len(d.Weeks))
	for _, e := range d.Weeks {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, errA := isoweek.ParseID(out[i].Week)
		b, errB := isoweek.ParseID(out[j].Week)
		if errA != nil || errB != nil {
			return out[i].Week < out[j].Week
		}
		return a.Before(b)
	})
	return out
}

// Latest returns the most recent stored week.
func (d *Dataset) Latest() (*WeekEntry, bool) {
	all := d.List()
	if len(all) == 0 {
		return nil, false
	}
	return all[len(all)-1], true
}

// Collection ingests the stored export for week.
func (d *Dataset) Collection(week string, opt roster.Options) (*roster.Collection, error) {
	data, err := d.Fetch(context.Background(), week)
	if err != nil {
		return nil, err
	}
	return roster.IngestBytes(data, opt)
}

// Fetch implements transport.Source over the stored exports.
func (d *Dataset) Fetch(ctx context.Context, week string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &transport.Error{Week: week, Source: d.Name, Err: err}
	}
	e, ok := d.Weeks[week]
	if !ok {
		return nil, &transport.Error{Week: week, Source: d.Name, Err: transport.ErrNotFound}
	}
	data, err := os.ReadFile(filepath.Join(d.rootDir, e.File))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = transport.ErrNotFound
		}
		return nil, &transport.Error{Week: week, Source: d.Name, Err: err}
	}
	return data, nil
}

// WeekIDs returns the stored week identifiers, oldest first.
func (d *Dataset) WeekIDs() []string {
	all := d.List()
	out := make([]string, len(all))
	for i, e := range all {
		out[i] = e.Week
	}
	return out
}

func isWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

// Dir returns the directory for a named dataset under base.
func Dir(base, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("invalid dataset name %q", name)
	}
	return filepath.Join(base, name), nil
}
