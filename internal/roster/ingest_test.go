package roster

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/chefscore-cli/internal/ranking"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestIngestBasicExport(t *testing.T) {
	in := "PLAYER,TOTAL_SCORE,CHEST_COUNT\nAlice,100,5\nBob,200,10\n"
	c, err := Ingest(strings.NewReader(in), DefaultOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	recs := c.Records()
	if recs[0].Name != "Alice" || recs[0].TotalScore != 100 || recs[0].ChestCount != 5 {
		t.Fatalf("first record = %#v", recs[0])
	}
	if len(c.CategoryKeys()) != 0 {
		t.Fatalf("category keys = %v, want none", c.CategoryKeys())
	}

	sorted := c.Sorted(ranking.Spec{Column: ColTotalScore, Direction: ranking.Desc}, ranking.Options{})
	got := sorted.Records()
	if got[0].Name != "Bob" || got[1].Name != "Alice" {
		t.Fatalf("sorted = %s,%s, want Bob,Alice", got[0].Name, got[1].Name)
	}
	if c.Records()[0].Name != "Alice" {
		t.Fatalf("Sorted mutated the source collection")
	}
}

func TestIngestCoercion(t *testing.T) {
	in := "PLAYER,TOTAL_SCORE,CHEST_COUNT,Crypt,Arena\n" +
		"  Alice  ,\" 1,234 \",7,12,n/a\n" +
		"Bob,oops,,\"3,000\",4\n"
	c, err := Ingest(strings.NewReader(in), DefaultOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	recs := c.Records()
	if recs[0].Name != "Alice" {
		t.Fatalf("name not trimmed: %q", recs[0].Name)
	}
	if recs[0].TotalScore != 1234 {
		t.Fatalf("total = %v, want 1234", recs[0].TotalScore)
	}
	if recs[0].Categories["Arena"] != 0 {
		t.Fatalf("unparseable category should be 0, got %v", recs[0].Categories["Arena"])
	}
	if recs[1].TotalScore != 0 || recs[1].ChestCount != 0 {
		t.Fatalf("bad core values should default to 0: %#v", recs[1])
	}
	if recs[1].Categories["Crypt"] != 3000 {
		t.Fatalf("crypt = %v, want 3000", recs[1].Categories["Crypt"])
	}
	keys := c.CategoryKeys()
	if strings.Join(keys, ",") != "Crypt,Arena" {
		t.Fatalf("category keys = %v", keys)
	}
	for _, r := range recs {
		if len(r.Categories) != len(keys) {
			t.Fatalf("record %s has %d categories, want %d", r.Name, len(r.Categories), len(keys))
		}
	}
}

func TestIngestSkipsEmptyRowsAndRejectsNamelessRows(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	opt := DefaultOptions()
	opt.Logger = zap.New(core)

	in := "PLAYER,TOTAL_SCORE,CHEST_COUNT\n" +
		"Alice,10,1\n" +
		",,\n" +
		"   ,50,2\n" +
		"Carol,30,3\n"
	c, err := Ingest(strings.NewReader(in), opt)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	rej := c.Rejected()
	if len(rej) != 1 || rej[0].Line != 4 {
		t.Fatalf("rejected = %#v, want one rejection at line 4", rej)
	}
	if logs.FilterMessage("row rejected").Len() != 1 {
		t.Fatalf("expected one rejection log entry, got %d", logs.Len())
	}
}

func TestIngestSkipsBlankLinesOfAnyWidth(t *testing.T) {
	in := "PLAYER,TOTAL_SCORE,CHEST_COUNT\n" +
		"Alice,1,2\n" +
		"   \n" +
		",,,\n" +
		"Bob,3,4\n"
	c, err := Ingest(strings.NewReader(in), DefaultOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if c.Len() != 2 || len(c.Rejected()) != 0 {
		t.Fatalf("len = %d rejected = %d, want 2 and 0", c.Len(), len(c.Rejected()))
	}
	recs := c.Records()
	if recs[0].Name != "Alice" || recs[1].Name != "Bob" || recs[1].ChestCount != 4 {
		t.Fatalf("records = %#v", recs)
	}
}

func TestIngestRaggedRowFails(t *testing.T) {
	in := "PLAYER,TOTAL_SCORE,CHEST_COUNT\nAlice,10,1\nBob,20\n"
	c, err := Ingest(strings.NewReader(in), DefaultOptions())
	if err == nil {
		t.Fatalf("expected parse failure")
	}
	if c != nil {
		t.Fatalf("no partial collection expected on failure")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error %T is not *ParseError", err)
	}
	if pe.Line != 3 || !errors.Is(err, ErrRaggedRow) {
		t.Fatalf("line = %d err = %v, want ragged row at line 3", pe.Line, err)
	}
}

func TestIngestSniffsSemicolonAndStripsBOM(t *testing.T) {
	in := "\ufeffPLAYER;TOTAL_SCORE;CHEST_COUNT;Epic\nAlice;1.500;3;7\n"
	opt := DefaultOptions()
	opt.ThousandsSeparator = '.'
	opt.DecimalSeparator = ','
	c, err := Ingest(strings.NewReader(in), opt)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !c.HasColumn(ColPlayer) {
		t.Fatalf("BOM not stripped from header: %v", c.Columns())
	}
	r := c.Records()[0]
	if r.TotalScore != 1500 || r.Categories["Epic"] != 7 {
		t.Fatalf("record = %#v", r)
	}
}

func TestIngestEmptyInput(t *testing.T) {
	c, err := Ingest(strings.NewReader(""), DefaultOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if c.Len() != 0 || len(c.Columns()) != 0 {
		t.Fatalf("expected empty collection, got %d records", c.Len())
	}
}

func TestIngestFileCSV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "week.csv")
	if err := os.WriteFile(p, []byte("PLAYER,TOTAL_SCORE\nAlice,5\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := IngestFile(p, DefaultOptions())
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if c.Len() != 1 || c.Records()[0].ChestCount != 0 {
		t.Fatalf("unexpected collection: %#v", c.Records())
	}
}

func TestRecordsAreCopies(t *testing.T) {
	c, err := Ingest(strings.NewReader("PLAYER,TOTAL_SCORE,Crypt\nAlice,1,2\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	recs := c.Records()
	recs[0].Categories["Crypt"] = 99
	recs[0].Name = "Mallory"
	again := c.Records()[0]
	if again.Name != "Alice" || again.Categories["Crypt"] != 2 {
		t.Fatalf("collection mutated through Records(): %#v", again)
	}
}

func TestParseNumber(t *testing.T) {
	opt := DefaultOptions()
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" 1,234,567 ", 1234567, true},
		{"1 234", 1234, true},
		{"-3.5", -3.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseNumber(tc.in, opt)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseNumber(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseNumberWithoutThousandsSeparator(t *testing.T) {
	opt := DefaultOptions()
	opt.ThousandsSeparator = NoThousandsSeparator
	if got, ok := parseNumber("1,234", opt); ok || got != 0 {
		t.Fatalf("parseNumber(1,234) = %v,%v; commas must not be stripped", got, ok)
	}
	if got, ok := parseNumber("1 234.5", opt); !ok || got != 1234.5 {
		t.Fatalf("parseNumber(1 234.5) = %v,%v", got, ok)
	}
}
