package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/suribanpo/excelprocess/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRunLogLifecycle(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	if err := st.CreateRunLog("run-1", 3, "명렬표.xlsx"); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := st.GetRunLog("run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "processing" || got.TotalSources != 3 || got.CompletedAt != nil {
		t.Fatalf("unexpected initial log: %+v", got)
	}

	err = st.FinishRunLog(RunLog{
		ID: "run-1", ImportedSources: 2, FailedSources: 1, TotalRecords: 40,
		Categories: 2, Reconciled: true, Status: "partial",
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	got, err = st.GetRunLog("run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "partial" || got.FailedSources != 1 || !got.Reconciled || got.CompletedAt == nil {
		t.Fatalf("unexpected finished log: %+v", got)
	}

	if _, err := st.GetRunLog("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("want ErrRunNotFound, got %v", err)
	}
	if err := st.FinishRunLog(RunLog{ID: "missing"}); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("want ErrRunNotFound on finish, got %v", err)
	}
}

func TestSourceResults(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	if err := st.CreateRunLog("run-2", 2, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	want := []SourceResult{
		{RunID: "run-2", Source: "a.xlsx#Sheet1", Label: "자율활동_회의", IdentityMode: "compound", HeaderRow: 1,
			Columns: []string{"학번", "이름", "특기사항"}, Records: 10, Status: "imported", DurationMS: 4},
		{RunID: "run-2", Source: "b.xlsx#Sheet1", Label: "진로활동_탐색", HeaderRow: -1,
			Status: "error", Stage: "resolve", ErrorMessage: "header not found"},
	}
	for _, r := range want {
		if err := st.InsertSourceResult(r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := st.ListSourceResults("run-2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want[1].Columns = []string{}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("source results mismatch (-want +got):\n%s", diff)
	}
}

func TestRosterReplaceLoadClear(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	empty, err := st.LoadRoster()
	if err != nil || empty != nil {
		t.Fatalf("empty store should have nil roster, got %+v err=%v", empty, err)
	}

	first := &model.Roster{Source: "old.xlsx", Identities: []model.Identity{{Grade: 1, Class: 1, Number: 1, Name: "가"}}}
	if err := st.ReplaceRoster(first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	second := &model.Roster{Source: "new.xlsx", Identities: []model.Identity{
		{Grade: 2, Class: 1, Number: 3, Name: "다"},
		{Grade: 1, Class: 4, Number: 2, Name: "나"},
	}}
	if err := st.ReplaceRoster(second); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := st.LoadRoster()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Fatalf("roster mismatch (-want +got):\n%s", diff)
	}

	if err := st.ClearRoster(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := st.LoadRoster(); got != nil {
		t.Fatalf("roster should be cleared, got %+v", got)
	}
}

func TestSettings(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	id, err := st.LastRunID()
	if err != nil || id != "" {
		t.Fatalf("want empty last run id, got %q err=%v", id, err)
	}
	if err := st.SetLastRunID("r1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.SetLastRunID("r2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if id, _ := st.LastRunID(); id != "r2" {
		t.Fatalf("want r2, got %q", id)
	}
	if _, err := st.GetSetting("nope"); !errors.Is(err, ErrSettingNotFound) {
		t.Fatalf("want ErrSettingNotFound, got %v", err)
	}
	all, err := st.GetAllSettings()
	if err != nil || all[keyLastRunID] != "r2" {
		t.Fatalf("unexpected settings %v err=%v", all, err)
	}
}
