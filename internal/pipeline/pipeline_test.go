package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/suribanpo/excelprocess/internal/model"
	"github.com/suribanpo/excelprocess/internal/parser"
	"github.com/suribanpo/excelprocess/internal/pivot"
)

func source(file, label string, rows [][]string) model.SourceTable {
	return model.SourceTable{FileName: file, SheetName: "Sheet1", Label: label, Table: model.RawTable{Rows: rows}}
}

func twoCategorySources() []model.SourceTable {
	return []model.SourceTable{
		source("창체_자율활동_학급회의.xlsx", "자율활동_학급회의", [][]string{
			{"자율활동 특기사항"},
			{"학번", "성명", "특기사항"},
			{"10101", "김하나", "학급 회의에서 의견을 냄. 메모"},
			{"10102", "이두리", "회의록을 작성함."},
			{"20305", "박세나", "사회를 맡음."},
		}),
		source("창체_진로활동_진로탐색.xlsx", "진로활동_진로탐색", [][]string{
			{"학년", "반", "번호", "이름", "내용"},
			{"2학년", "3반", "5번", "박세나", "진로 발표를 함."},
			{"1", "1", "1", "김하나", "직업 탐색 보고서 작성."},
			{"3", "1", "9", "외부생", "전학 예정."},
		}),
	}
}

func TestExecute_EndToEndWithRoster(t *testing.T) {
	t.Parallel()

	roster := &model.Roster{Source: "roster.xlsx", Identities: []model.Identity{
		{Grade: 1, Class: 1, Number: 2, Name: "이두리"},
		{Grade: 1, Class: 1, Number: 1, Name: "김하나"},
		{Grade: 1, Class: 2, Number: 7, Name: "최누리"},
		{Grade: 2, Class: 3, Number: 5, Name: "최다른"},
	}}

	run := NewContext(Options{}, roster, nil)
	res, err := run.Execute(context.Background(), twoCategorySources())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if res.Long.Len() != 6 {
		t.Fatalf("long rows want=6 got=%d", res.Long.Len())
	}
	if len(res.Final) != 2 || res.Final[0].Category != "자율활동" || res.Final[1].Category != "진로활동" {
		t.Fatalf("unexpected categories: %+v", res.Final)
	}

	for _, p := range res.Final {
		if len(p.Rows) != roster.Len() {
			t.Fatalf("%s rows want=%d got=%d", p.Category, roster.Len(), len(p.Rows))
		}
		for i := 1; i < len(p.Rows); i++ {
			if p.Rows[i].Identity.Less(p.Rows[i-1].Identity) {
				t.Fatalf("%s rows not sorted at %d", p.Category, i)
			}
		}
		for _, row := range p.Rows {
			if row.Identity.Name == "외부생" || row.Identity.Name == "박세나" {
				t.Fatalf("%s contains non-roster student %+v", p.Category, row.Identity)
			}
			if row.Identity.Name == "최누리" || row.Identity.Name == "최다른" {
				for _, c := range row.Cells {
					if c != "" {
						t.Fatalf("missing roster student should have empty cells, got %q", c)
					}
				}
			}
		}
	}

	auto := res.Final[0]
	if got := auto.Rows[0].Cells[0]; got != "학급 회의에서 의견을 냄. " {
		t.Fatalf("trimmed content want=%q got=%q", "학급 회의에서 의견을 냄. ", got)
	}
}

func TestExecute_PartialFailureKeepsOtherSources(t *testing.T) {
	t.Parallel()

	sources := append(twoCategorySources(),
		source("창체_자율활동_깨진파일.xlsx", "자율활동_깨진파일", [][]string{{"a", "b"}, {"1", "2"}}),
		source("창체_자율활동_학번오류.xlsx", "자율활동_학번오류", [][]string{{"학번", "이름", "내용"}, {"1x", "가", "a."}}),
	)

	res, err := NewContext(Options{}, nil, nil).Execute(context.Background(), sources)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("failures want=2 got=%d (%+v)", len(res.Failures), res.Failures)
	}

	var notFound *parser.HeaderNotFoundError
	if !errors.As(res.Failures[0].Err, &notFound) || res.Failures[0].Stage != StageResolve {
		t.Fatalf("first failure want header-not-found at resolve, got %+v", res.Failures[0])
	}
	var malformed *parser.MalformedIdentityError
	if !errors.As(res.Failures[1].Err, &malformed) {
		t.Fatalf("second failure want malformed identity, got %+v", res.Failures[1])
	}
	if res.Failures[1].Source != "창체_자율활동_학번오류.xlsx#Sheet1" {
		t.Fatalf("failure must name the source, got %q", res.Failures[1].Source)
	}
	if res.Long.Len() != 6 {
		t.Fatalf("healthy sources must still contribute, long rows=%d", res.Long.Len())
	}
	if res.Reconciled {
		t.Fatalf("no roster supplied, result must not be reconciled")
	}
}

func TestExecute_StrictRosterIsRunFatal(t *testing.T) {
	t.Parallel()

	roster := &model.Roster{Source: "roster.xlsx", Identities: []model.Identity{
		{Grade: 1, Class: 1, Number: 1, Name: "김하나"},
		{Grade: 1, Class: 1, Number: 1, Name: "김하나"},
	}}
	_, err := NewContext(Options{StrictRoster: true}, roster, nil).Execute(context.Background(), twoCategorySources())

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageReconcile || stageErr.Source != "roster.xlsx" {
		t.Fatalf("want reconcile StageError naming roster, got %v", err)
	}
	var dup *pivot.DuplicateRosterKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("want DuplicateRosterKeyError in chain, got %v", err)
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sources := twoCategorySources()
	_, err := NewContext(Options{}, nil, nil).Execute(ctx, sources)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageCancelled || stageErr.Source != sources[0].Name() {
		t.Fatalf("want cancelled StageError naming the pending source, got %v", err)
	}
}

func TestExecute_CancelledAfterSources(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	run := NewContext(Options{}, nil, nil)
	sources := twoCategorySources()
	done := 0
	run.OnSource = func(SourceStat) {
		done++
		if done == len(sources) {
			cancel()
		}
	}

	_, err := run.Execute(ctx, sources)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageCancelled || stageErr.Source != "" {
		t.Fatalf("want cancelled StageError without source, got %v", err)
	}
	if done != len(sources) {
		t.Fatalf("all sources should be processed before cancel, got %d", done)
	}
}

func TestBuildRoster(t *testing.T) {
	t.Parallel()

	roster, err := BuildRoster("명렬표.xlsx", model.RawTable{Rows: [][]string{
		{"2024 명렬표"},
		{"학번", "성명"},
		{"10101", "김하나"},
		{"10102", "이두리"},
	}}, parser.PreferDiscrete)
	if err != nil {
		t.Fatalf("build roster: %v", err)
	}
	if roster.Len() != 2 || roster.Identities[1].Number != 2 || roster.Identities[1].Name != "이두리" {
		t.Fatalf("unexpected roster: %+v", roster.Identities)
	}

	_, err = BuildRoster("bad.xlsx", model.RawTable{Rows: [][]string{{"x"}}}, parser.PreferDiscrete)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Source != "bad.xlsx" {
		t.Fatalf("want StageError naming source, got %v", err)
	}
}
