package parser

import (
	"errors"
	"testing"

	"github.com/suribanpo/excelprocess/internal/model"
)

func TestParseCompoundCode(t *testing.T) {
	t.Parallel()

	g, c, n, err := ParseCompoundCode("30112")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if g != 3 || c != 1 || n != 12 {
		t.Fatalf("want=3/1/12 got=%d/%d/%d", g, c, n)
	}

	g, c, n, err = ParseCompoundCode("21105")
	if err != nil || g != 2 || c != 11 || n != 5 {
		t.Fatalf("want=2/11/5 got=%d/%d/%d err=%v", g, c, n, err)
	}

	for _, bad := range []string{"301", "3a112", "", "00101"} {
		_, _, _, err := ParseCompoundCode(bad)
		var malformed *MalformedIdentityError
		if !errors.As(err, &malformed) {
			t.Fatalf("ParseCompoundCode(%q) want MalformedIdentityError got %v", bad, err)
		}
	}
}

func TestFindHeaderRow_SkipsTitleRows(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"2024학년도 자율활동 특기사항"},
		{},
		{"학번", "성명", "특기사항"},
		{"30112", "홍길동", "열심히 함."},
	}
	idx, err := FindHeaderRow(rows, DefaultHeaderMarkers)
	if err != nil {
		t.Fatalf("find header: %v", err)
	}
	if idx != 2 {
		t.Fatalf("header row want=2 got=%d", idx)
	}

	_, err = FindHeaderRow([][]string{{"a", "b"}}, DefaultHeaderMarkers)
	var notFound *HeaderNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("want HeaderNotFoundError got %v", err)
	}
}

func TestHeaderLabels_RenamesLegacyAndDedupes(t *testing.T) {
	t.Parallel()

	got := HeaderLabels([]string{"학번", "성명", "", "내용", "내용"}, 6)
	want := []string{"학번", "이름", "Unnamed", "내용", "내용_1", "Unnamed_1"}
	if len(got) != len(want) {
		t.Fatalf("labels len want=%d got=%d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("label[%d] want=%q got=%q", i, want[i], got[i])
		}
	}
}

func TestIdentityResolver_Compound(t *testing.T) {
	t.Parallel()

	raw := model.RawTable{Rows: [][]string{
		{"자율활동 명단"},
		{"학번", "성명", "기재 내용"},
		{"30112", "김하늘", "학급 회의에 참여함."},
		{"", "", ""},
		{"30205", "이바다", "봉사 활동."},
	}}

	res, err := NewIdentityResolver(PreferDiscrete).Resolve(raw)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Mode != IdentityCompound {
		t.Fatalf("mode want=compound got=%s", res.Mode)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows want=2 got=%d", len(res.Rows))
	}
	want := model.Identity{Grade: 3, Class: 2, Number: 5, Name: "이바다"}
	if res.Rows[1].Identity != want {
		t.Fatalf("identity want=%+v got=%+v", want, res.Rows[1].Identity)
	}
	if res.Rows[1].RowNo != 5 {
		t.Fatalf("row no want=5 got=%d", res.Rows[1].RowNo)
	}
}

func TestIdentityResolver_DiscreteWithDecoration(t *testing.T) {
	t.Parallel()

	raw := model.RawTable{Rows: [][]string{
		{"학년", "반", "번호", "이름", "내용"},
		{"2학년", "3반", "5번", "박구름", "발표함."},
	}}

	res, err := NewIdentityResolver("").Resolve(raw)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := model.Identity{Grade: 2, Class: 3, Number: 5, Name: "박구름"}
	if res.Rows[0].Identity != want {
		t.Fatalf("identity want=%+v got=%+v", want, res.Rows[0].Identity)
	}
}

func TestIdentityResolver_PrecedenceIsConfigurable(t *testing.T) {
	t.Parallel()

	raw := model.RawTable{Rows: [][]string{
		{"학번", "학년", "반", "번호", "이름", "내용"},
		{"10101", "2", "3", "4", "최별", "내용."},
	}}

	discrete, err := NewIdentityResolver(PreferDiscrete).Resolve(raw)
	if err != nil {
		t.Fatalf("resolve discrete: %v", err)
	}
	if discrete.Mode != IdentityDiscrete || discrete.Rows[0].Identity.Grade != 2 {
		t.Fatalf("discrete precedence ignored: mode=%s id=%+v", discrete.Mode, discrete.Rows[0].Identity)
	}

	compound, err := NewIdentityResolver(PreferCompound).Resolve(raw)
	if err != nil {
		t.Fatalf("resolve compound: %v", err)
	}
	if compound.Mode != IdentityCompound || compound.Rows[0].Identity.Grade != 1 {
		t.Fatalf("compound precedence ignored: mode=%s id=%+v", compound.Mode, compound.Rows[0].Identity)
	}
}

func TestIdentityResolver_MalformedRowReportsPosition(t *testing.T) {
	t.Parallel()

	raw := model.RawTable{Rows: [][]string{
		{"학년", "반", "번호", "이름", "내용"},
		{"1", "1", "1", "가", "a."},
		{"일학년", "1", "2", "나", "b."},
	}}

	_, err := NewIdentityResolver(PreferDiscrete).Resolve(raw)
	var malformed *MalformedIdentityError
	if !errors.As(err, &malformed) {
		t.Fatalf("want MalformedIdentityError got %v", err)
	}
	if malformed.RowNo != 3 || malformed.Column != "학년" {
		t.Fatalf("unexpected position: row=%d column=%q", malformed.RowNo, malformed.Column)
	}
}

func TestIdentityResolver_NoIdentityColumns(t *testing.T) {
	t.Parallel()

	raw := model.RawTable{Rows: [][]string{
		{"이름", "내용"},
		{"가", "a."},
	}}
	_, err := NewIdentityResolver(PreferDiscrete).Resolve(raw)
	var malformed *MalformedIdentityError
	if !errors.As(err, &malformed) {
		t.Fatalf("want MalformedIdentityError got %v", err)
	}
}

func TestLocateIdentityColumns_PrefersExactNameLabel(t *testing.T) {
	t.Parallel()

	cols := LocateIdentityColumns([]string{"학번", "동아리이름", "이름", "특기사항"})
	if cols.Name != 2 || cols.Code != 0 {
		t.Fatalf("want code=0 name=2 got code=%d name=%d", cols.Code, cols.Name)
	}

	cols = LocateIdentityColumns([]string{"학번", "학생이름", "특기사항"})
	if cols.Name != 1 {
		t.Fatalf("without an exact label the first name-like column is used, got %d", cols.Name)
	}
}

func TestIdentityResolver_NameLikeColumnBeforeName(t *testing.T) {
	t.Parallel()

	raw := model.RawTable{Rows: [][]string{
		{"학번", "동아리이름", "이름", "특기사항"},
		{"10101", "과학반", "김하나", "실험 보고서를 작성함."},
	}}

	res, err := NewIdentityResolver("").Resolve(raw)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := model.Identity{Grade: 1, Class: 1, Number: 1, Name: "김하나"}
	if res.Rows[0].Identity != want {
		t.Fatalf("identity want=%+v got=%+v", want, res.Rows[0].Identity)
	}

	records, err := NewRecordNormalizer().Normalize(res, "동아리활동_과학")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := records[0].Content; got != "실험 보고서를 작성함. " {
		t.Fatalf("content want=%q got=%q", "실험 보고서를 작성함. ", got)
	}
}
