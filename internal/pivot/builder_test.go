package pivot

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/suribanpo/excelprocess/internal/model"
)

var (
	kim  = model.Identity{Grade: 1, Class: 1, Number: 1, Name: "김"}
	lee  = model.Identity{Grade: 1, Class: 1, Number: 2, Name: "이"}
	park = model.Identity{Grade: 2, Class: 3, Number: 5, Name: "박"}
)

func rec(id model.Identity, category, sub, content string) model.Record {
	return model.Record{Identity: id, Category: category, Subcategory: sub, Content: content}
}

func TestAggregate_PreservesOrderAndDuplicates(t *testing.T) {
	t.Parallel()

	a := []model.Record{rec(kim, "자율", "a", "1"), rec(kim, "자율", "a", "2")}
	b := []model.Record{rec(lee, "진로", "b", "3")}

	long := Aggregate(a, b)
	want := []model.Record{a[0], a[1], b[0]}
	if diff := cmp.Diff(want, long.Records); diff != "" {
		t.Fatalf("aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeContents_Associative(t *testing.T) {
	t.Parallel()

	left := MergeContents([]string{MergeContents([]string{"A", "B"}), "C"})
	direct := MergeContents([]string{"A", "B", "C"})
	if left != "A | B | C" || left != direct {
		t.Fatalf("merge want=%q got left=%q direct=%q", "A | B | C", left, direct)
	}
}

func TestBuild_GroupsDuplicatesAndKeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()

	long := Aggregate([]model.Record{
		rec(lee, "자율", "회의", "회의 참여. "),
		rec(kim, "자율", "봉사", "봉사함. "),
		rec(lee, "진로", "탐색", "진로 탐색. "),
		rec(kim, "자율", "회의", "사회를 봄. "),
		rec(lee, "자율", "회의", "발표함. "),
	})

	p := NewBuilder("").Build(long, "자율")
	want := &model.PivotTable{
		Category:      "자율",
		Subcategories: []string{"회의", "봉사"},
		Rows: []model.PivotRow{
			{Identity: lee, Cells: []string{"회의 참여.  | 발표함. ", ""}},
			{Identity: kim, Cells: []string{"사회를 봄. ", "봉사함. "}},
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("pivot mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildAll_CategoryOrder(t *testing.T) {
	t.Parallel()

	long := Aggregate([]model.Record{
		rec(kim, "진로", "a", "x"),
		rec(kim, "자율", "a", "y"),
		rec(lee, "진로", "b", "z"),
	})
	pivots := NewBuilder("").BuildAll(long)
	if len(pivots) != 2 || pivots[0].Category != "진로" || pivots[1].Category != "자율" {
		t.Fatalf("unexpected category order: %+v", pivots)
	}
}

func TestBuild_FlattenRoundTrip(t *testing.T) {
	t.Parallel()

	long := Aggregate([]model.Record{
		rec(kim, "자율", "b", "1"),
		rec(lee, "자율", "a", "2"),
		rec(park, "자율", "b", "3"),
		rec(park, "자율", "b", "4"),
		rec(lee, "자율", "c", ""),
	})
	b := NewBuilder("")
	first := b.Build(long, "자율")
	second := b.Build(Flatten(first), "자율")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("round trip mismatch (-first +second):\n%s", diff)
	}
}
