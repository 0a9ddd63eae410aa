package ranking_test

import (
	"testing"

	"github.com/KaramelBytes/chefscore-cli/internal/ranking"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/text/language"
)

type row struct {
	name  string
	score float64
	extra map[string]float64
}

func (r row) SortKey(column string) (ranking.Key, bool) {
	switch column {
	case "name":
		return ranking.LabelKey(r.name), true
	case "score":
		return ranking.NumberKey(r.score), true
	}
	v, ok := r.extra[column]
	return ranking.NumberKey(v), ok
}

func names(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.name
	}
	return out
}

func TestSort(t *testing.T) {
	Convey("Given rows with distinct scores", t, func() {
		rows := []row{
			{name: "carol", score: 30},
			{name: "Alice", score: 10},
			{name: "bob", score: 20},
			{name: "dave", score: 5},
		}

		Convey("Ascending then descending yields exact reverse order", func() {
			asc := ranking.Sort(rows, ranking.Spec{Column: "score", Direction: ranking.Asc}, ranking.Options{})
			desc := ranking.Sort(rows, ranking.Spec{Column: "score", Direction: ranking.Desc}, ranking.Options{})
			So(names(asc), ShouldResemble, []string{"dave", "Alice", "bob", "carol"})
			for i := range asc {
				So(desc[i].name, ShouldEqual, asc[len(asc)-1-i].name)
			}
		})

		Convey("Sorting twice is idempotent", func() {
			spec := ranking.Spec{Column: "score", Direction: ranking.Desc}
			once := ranking.Sort(rows, spec, ranking.Options{})
			twice := ranking.Sort(once, spec, ranking.Options{})
			So(names(twice), ShouldResemble, names(once))
		})

		Convey("The input slice is not reordered", func() {
			_ = ranking.Sort(rows, ranking.Spec{Column: "score", Direction: ranking.Asc}, ranking.Options{})
			So(rows[0].name, ShouldEqual, "carol")
		})

		Convey("Label columns ignore case", func() {
			got := ranking.Sort(rows, ranking.Spec{Column: "name", Direction: ranking.Asc}, ranking.Options{Language: language.English})
			So(names(got), ShouldResemble, []string{"Alice", "bob", "carol", "dave"})
		})

		Convey("An unknown column is a no-op", func() {
			got := ranking.Sort(rows, ranking.Spec{Column: "missing", Direction: ranking.Desc}, ranking.Options{})
			So(names(got), ShouldResemble, names(rows))
		})
	})

	Convey("Given rows with equal keys", t, func() {
		rows := []row{
			{name: "a", score: 1},
			{name: "b", score: 2},
			{name: "c", score: 1},
			{name: "d", score: 2},
		}
		Convey("Ties keep their input order in both directions", func() {
			asc := ranking.Sort(rows, ranking.Spec{Column: "score", Direction: ranking.Asc}, ranking.Options{})
			So(names(asc), ShouldResemble, []string{"a", "c", "b", "d"})
			desc := ranking.Sort(rows, ranking.Spec{Column: "score", Direction: ranking.Desc}, ranking.Options{})
			So(names(desc), ShouldResemble, []string{"b", "d", "a", "c"})
		})
	})

	Convey("Given a category present on the first row only", t, func() {
		rows := []row{
			{name: "a", extra: map[string]float64{"hunt": 5}},
			{name: "b"},
			{name: "c", extra: map[string]float64{"hunt": -1}},
		}
		Convey("Missing values compare as zero and are kept", func() {
			got := ranking.Sort(rows, ranking.Spec{Column: "hunt", Direction: ranking.Asc}, ranking.Options{})
			So(names(got), ShouldResemble, []string{"c", "b", "a"})
		})
	})

	Convey("Given an empty input", t, func() {
		got := ranking.Sort([]row{}, ranking.Spec{Column: "score"}, ranking.Options{})
		So(got, ShouldBeEmpty)
	})
}

func TestParseDirection(t *testing.T) {
	cases := map[string]ranking.Direction{"": ranking.Asc, "ASC": ranking.Asc, "desc": ranking.Desc, " Descending ": ranking.Desc}
	for in, want := range cases {
		got, err := ranking.ParseDirection(in)
		if err != nil {
			t.Fatalf("ParseDirection(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseDirection(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ranking.ParseDirection("sideways"); err == nil {
		t.Fatalf("expected error for invalid direction")
	}
}
