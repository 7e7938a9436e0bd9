package exporter

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/suribanpo/excelprocess/internal/model"
)

var (
	kim  = model.Identity{Grade: 1, Class: 1, Number: 1, Name: "김하나"}
	lee  = model.Identity{Grade: 1, Class: 2, Number: 3, Name: "이두리"}
	park = model.Identity{Grade: 2, Class: 1, Number: 5, Name: "박세나"}
)

func samplePivot() *model.PivotTable {
	return &model.PivotTable{
		Category:      "자율활동",
		Subcategories: []string{"학급회의", "봉사"},
		Rows: []model.PivotRow{
			{Identity: kim, Cells: []string{"회의 참여. ", ""}},
			{Identity: lee, Cells: []string{"", "봉사함. "}},
			{Identity: park, Cells: []string{"사회. ", "청소. "}},
		},
	}
}

func TestByteLength(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"":         0,
		"abc":      3,
		"한글":       6,
		"회의 참여. ": 12 + 3,
	}
	for in, want := range cases {
		if got := ByteLength(in); got != want {
			t.Fatalf("ByteLength(%q) want=%d got=%d", in, want, got)
		}
	}
}

func TestSummarizeBytes(t *testing.T) {
	t.Parallel()

	p := &model.PivotTable{
		Category:      "자율활동",
		Subcategories: []string{"학급회의", "봉사"},
		Rows: []model.PivotRow{
			{Identity: model.Identity{Grade: 1, Class: 1, Number: 1, Name: "김하나"}, Cells: []string{"회의 참여. ", "abc"}},
			{Identity: model.Identity{Grade: 1, Class: 1, Number: 2, Name: "이두리"}, Cells: []string{"", ""}},
		},
	}

	stats := SummarizeBytes([]*model.PivotTable{p}, 16)
	if len(stats) != 1 || stats[0].MaxBytes != 18 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(stats[0].OverLimit) != 1 || stats[0].OverLimit[0].Identity.Name != "김하나" || stats[0].OverLimit[0].Bytes != 18 {
		t.Fatalf("unexpected overflow %+v", stats[0].OverLimit)
	}

	if got := NewExporter(Options{ByteLimit: -1}).ByteStats([]*model.PivotTable{p}); len(got[0].OverLimit) != 0 {
		t.Fatalf("negative limit disables the check, got %+v", got[0].OverLimit)
	}
	if got := NewExporter(Options{}).ByteStats([]*model.PivotTable{p}); got[0].Limit != DefaultByteLimit {
		t.Fatalf("limit want=%d got=%d", DefaultByteLimit, got[0].Limit)
	}
}

func TestSheetName_TruncatesAndDedupes(t *testing.T) {
	t.Parallel()

	used := map[string]bool{}
	long := strings.Repeat("가", 40)
	first := SheetName(long, used)
	second := SheetName(long, used)
	if n := len([]rune(first)); n != MaxSheetNameLen {
		t.Fatalf("want %d runes got %d", MaxSheetNameLen, n)
	}
	if first == second || len([]rune(second)) > MaxSheetNameLen || !strings.HasSuffix(second, "~2") {
		t.Fatalf("unexpected dedupe first=%q second=%q", first, second)
	}
	if got := SheetName("a/b:c[1]", used); got != "abc1" {
		t.Fatalf("invalid chars must be stripped, got %q", got)
	}
}

func TestWritePivotWithFormulas(t *testing.T) {
	t.Parallel()

	f, err := NewExporter(Options{}).Pivot(samplePivot(), true)
	if err != nil {
		t.Fatalf("pivot: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	if got := f.GetSheetList(); len(got) != 1 || got[0] != DefaultSheetName {
		t.Fatalf("unexpected sheets %v", got)
	}
	rows, err := f.GetRows(DefaultSheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	wantHeader := []string{"학년", "반", "번호", "이름", "학급회의", "봉사", ColCombined, ColBytes}
	if diff := cmp.Diff(wantHeader, rows[0]); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if rows[1][3] != "김하나" || rows[3][0] != "2" {
		t.Fatalf("unexpected body rows %v", rows[1:])
	}

	formula, err := f.GetCellFormula(DefaultSheetName, "G3")
	if err != nil {
		t.Fatalf("formula: %v", err)
	}
	if got := strings.TrimPrefix(formula, "="); got != "CONCATENATE(E3,F3)" {
		t.Fatalf("combined formula want=%q got=%q", "CONCATENATE(E3,F3)", got)
	}
	formula, _ = f.GetCellFormula(DefaultSheetName, "H4")
	if got := strings.TrimPrefix(formula, "="); got != "LENB(G4)*2-LEN(G4)" {
		t.Fatalf("byte formula want=%q got=%q", "LENB(G4)*2-LEN(G4)", got)
	}

	width, err := f.GetColWidth(DefaultSheetName, "E")
	if err != nil || width != DefaultColumnWidth {
		t.Fatalf("column width want=%v got=%v err=%v", DefaultColumnWidth, width, err)
	}
	if w, _ := f.GetColWidth(DefaultSheetName, "H"); w != DefaultColumnWidth {
		t.Fatalf("byte column width want=%v got=%v", DefaultColumnWidth, w)
	}

	styleID, err := f.GetCellStyle(DefaultSheetName, "F2")
	if err != nil {
		t.Fatalf("style: %v", err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style.Alignment == nil || !style.Alignment.WrapText {
		t.Fatalf("content cells must wrap text, style=%+v err=%v", style, err)
	}
}

func TestConcatFormula_NoContentColumns(t *testing.T) {
	t.Parallel()

	if got := ConcatFormula(5, 4, 2); got != `""` {
		t.Fatalf("want empty string formula, got %q", got)
	}
	if got := ConcatFormula(5, 5, 2); got != "CONCATENATE(E2)" {
		t.Fatalf("single column formula, got %q", got)
	}
}

func TestWriteClassSheets(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	names, err := WriteClassSheets(f, samplePivot())
	if err != nil {
		t.Fatalf("class sheets: %v", err)
	}
	want := []string{"1-1", "1-2", "2-1"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("class sheet names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, f.GetSheetList()); diff != "" {
		t.Fatalf("default sheet must be dropped (-want +got):\n%s", diff)
	}
	rows, _ := f.GetRows("1-2")
	if len(rows) != 2 || rows[1][3] != "이두리" {
		t.Fatalf("unexpected 1-2 sheet rows %v", rows)
	}
}

func TestMergedAndLong(t *testing.T) {
	t.Parallel()

	e := NewExporter(Options{})
	merged, err := e.Merged([]SheetData{
		{Name: "자율활동_학급회의", Header: []string{"학번", "이름", "특기사항"}, Rows: [][]string{{"10101", "김하나", "회의. "}}},
		{Name: "진로활동_탐색", Header: []string{"학년", "반", "번호", "이름", "내용"}},
	})
	if err != nil {
		t.Fatalf("merged: %v", err)
	}
	t.Cleanup(func() { _ = merged.Close() })
	if diff := cmp.Diff([]string{"자율활동_학급회의", "진로활동_탐색"}, merged.GetSheetList()); diff != "" {
		t.Fatalf("merged sheets (-want +got):\n%s", diff)
	}

	long, err := e.Long(&model.LongTable{Records: []model.Record{
		{Identity: kim, Category: "자율활동", Subcategory: "학급회의", Content: "회의. "},
	}})
	if err != nil {
		t.Fatalf("long: %v", err)
	}
	t.Cleanup(func() { _ = long.Close() })
	rows, _ := long.GetRows(defaultSheet)
	want := [][]string{LongTableHeader, {"1", "1", "1", "김하나", "자율활동", "학급회의", "회의. "}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("long rows (-want +got):\n%s", diff)
	}
}

func TestExportAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	var events []ProgressEvent

	outputs, err := NewExporter(Options{ClassSheets: true}).ExportAll(Bundle{
		Long:   &model.LongTable{},
		Pivots: []*model.PivotTable{samplePivot()},
	}, dir, now, func(p ProgressEvent) { events = append(events, p) })
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	kinds := make([]Kind, 0, len(outputs))
	for _, o := range outputs {
		kinds = append(kinds, o.Kind)
		if _, err := os.Stat(o.Path); err != nil {
			t.Fatalf("output %s missing: %v", o.FileName, err)
		}
	}
	if diff := cmp.Diff([]Kind{KindMerged, KindLong, KindPivot, KindFormula, KindClass}, kinds); diff != "" {
		t.Fatalf("output kinds (-want +got):\n%s", diff)
	}
	if outputs[3].FileName != "자율활동_특기사항_통합_엑셀수식포함_20260302_093000.xlsx" {
		t.Fatalf("unexpected file name %q", outputs[3].FileName)
	}
	if len(events) != len(outputs) || events[len(events)-1].Percent != 100 {
		t.Fatalf("unexpected progress events %+v", events)
	}
}
