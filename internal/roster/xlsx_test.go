package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "week.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	return path
}

func TestIngestXLSX(t *testing.T) {
	path := writeWorkbook(t, "Clan", [][]any{
		{"PLAYER", "TOTAL_SCORE", "CHEST_COUNT", "Crypt"},
		{"Alice", 100, 5, 40},
		{"Bob", "2,500", 10},
		{"", 7, 1, 1},
	})

	c, err := IngestFile(path, DefaultOptions())
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	bob := c.Records()[1]
	if bob.TotalScore != 2500 {
		t.Fatalf("bob total = %v, want 2500", bob.TotalScore)
	}
	if v, ok := bob.Categories["Crypt"]; !ok || v != 0 {
		t.Fatalf("short row should pad Crypt to 0, got %v (present=%v)", v, ok)
	}
	if len(c.Rejected()) != 1 || c.Rejected()[0].Line != 4 {
		t.Fatalf("rejected = %#v", c.Rejected())
	}

	byName, err := IngestXLSX(path, "Clan", DefaultOptions())
	if err != nil {
		t.Fatalf("IngestXLSX by name: %v", err)
	}
	if byName.Len() != 2 {
		t.Fatalf("by name len = %d", byName.Len())
	}
}

func TestIngestXLSXMissingSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{{"PLAYER"}, {"Alice"}})
	if _, err := IngestXLSX(path, "Nope", DefaultOptions()); err == nil {
		t.Fatalf("expected error for missing sheet")
	}
}

func TestIngestBytesDetectsWorkbook(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{{"PLAYER", "TOTAL_SCORE"}, {"Alice", 3}})
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	c, err := IngestBytes(data, DefaultOptions())
	if err != nil {
		t.Fatalf("IngestBytes xlsx: %v", err)
	}
	if c.Len() != 1 || c.Records()[0].TotalScore != 3 {
		t.Fatalf("unexpected records: %#v", c.Records())
	}

	c, err = IngestBytes([]byte("PLAYER,TOTAL_SCORE\nBob,4\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("IngestBytes csv: %v", err)
	}
	if c.Records()[0].Name != "Bob" {
		t.Fatalf("unexpected csv record: %#v", c.Records()[0])
	}
}
