package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docstack/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := New(filepath.Join(t.TempDir(), "docstack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestConfig_KV(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	_, err := st.GetConfig("missing")
	require.ErrorIs(t, err, ErrConfigNotFound)

	id, err := st.GetCurrentRunID()
	require.NoError(t, err)
	require.Empty(t, id)

	require.NoError(t, st.SetCurrentRunID("run-1"))
	require.NoError(t, st.SetCurrentRunID("run-2"))

	id, err = st.GetCurrentRunID()
	require.NoError(t, err)
	require.Equal(t, "run-2", id)

	n, err := st.GetConfigInt(ConfigRunCount)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	all, err := st.GetAllConfig()
	require.NoError(t, err)
	require.Equal(t, map[string]string{ConfigCurrentRunID: "run-2", ConfigRunCount: "2"}, all)
}

func TestRuns_Lifecycle(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	created := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	run := &model.Run{ID: "run-1", Filename: "loadsheet.xlsx", FilePath: "/tmp/x.xlsx", FileSize: 42, CreatedAt: created}
	require.NoError(t, st.CreateRun(run))

	got, err := st.GetRun("run-1")
	require.NoError(t, err)
	require.Equal(t, model.RunStatusProcessing, got.Status)
	require.True(t, got.CreatedAt.Equal(created))
	require.Nil(t, got.CompletedAt)

	summary := model.Summary{
		TotalRecords:     5,
		TotalStacks:      2,
		DuplicateRecords: 2,
		DupeStacks:       1,
		XrefRecords:      1,
		Failures: map[model.ErrorKind]int{
			model.ErrorAmbiguousRevision: 2,
		},
	}
	stacks := []model.StackSummary{
		{StackID: "Stack_001", DocumentNumber: "D1", Rank: 1, Rows: 3, LatestRevision: "C", LatestRowNo: 3,
			SheetCount: "02", ReviewStatus: model.ReviewStatusNoReview, Resolved: true},
		{StackID: "Stack_002", DocumentNumber: "D2", Rank: 2, Rows: 2, LatestRevision: "review",
			SheetCount: "01", ReviewStatus: model.ReviewStatusReview, DupeStack: true, Reason: "tie"},
	}
	require.NoError(t, st.CompleteRun("run-1", "Documents", "/exports/run-1.xlsx", summary, stacks))

	got, err = st.GetRun("run-1")
	require.NoError(t, err)
	require.Equal(t, model.RunStatusCompleted, got.Status)
	require.Equal(t, "Documents", got.SheetName)
	require.Equal(t, "/exports/run-1.xlsx", got.ExportPath)
	require.NotNil(t, got.CompletedAt)
	require.Equal(t, 5, got.Summary.TotalRecords)
	require.Equal(t, 2, got.Summary.Failures[model.ErrorAmbiguousRevision])
	require.Equal(t, 0, got.Summary.Failures[model.ErrorInvalidDate])
	require.Len(t, got.Summary.Failures, len(model.AllErrorKinds))
	require.Equal(t, []string{"Stack_002"}, got.Summary.UnresolvedStacks)

	gotStacks, err := st.GetRunStacks("run-1")
	require.NoError(t, err)
	require.Equal(t, stacks, gotStacks)

	require.ErrorIs(t, st.CompleteRun("nope", "", "", summary, nil), ErrRunNotFound)
}

func TestRuns_ListFailAndDelete(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, st.CreateRun(&model.Run{ID: id, Filename: id + ".xlsx", CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}
	require.NoError(t, st.FailRun("b", "open workbook: boom"))

	runs, err := st.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "c", runs[0].ID)
	require.Equal(t, "b", runs[1].ID)
	require.Equal(t, model.RunStatusFailed, runs[1].Status)
	require.Equal(t, "open workbook: boom", runs[1].ErrorMessage)

	require.NoError(t, st.AddRunOutput(model.RunOutput{RunID: "a", Kind: model.OutputKindExport, Path: "/e/a.xlsx", Rows: 3}))
	require.NoError(t, st.SetOutputRemoteURI("a", "/e/a.xlsx", "gs://bucket/a.xlsx"))
	outs, err := st.ListRunOutputs("a")
	require.NoError(t, err)
	require.Equal(t, []model.RunOutput{{RunID: "a", Kind: model.OutputKindExport, Path: "/e/a.xlsx", Rows: 3, RemoteURI: "gs://bucket/a.xlsx"}}, outs)

	require.NoError(t, st.DeleteRun("a"))
	_, err = st.GetRun("a")
	require.ErrorIs(t, err, ErrRunNotFound)
	outs, err = st.ListRunOutputs("a")
	require.NoError(t, err)
	require.Empty(t, outs)
	require.ErrorIs(t, st.DeleteRun("a"), ErrRunNotFound)
}

func TestSheetMeta(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	require.NoError(t, st.CreateRun(&model.Run{ID: "r", Filename: "f.xlsx"}))
	meta := model.SheetMeta{
		RunID:             "r",
		SheetName:         "Documents",
		SheetType:         "loadsheet",
		Confidence:        1.2,
		TotalRows:         10,
		TotalColumns:      2,
		ImportedRows:      9,
		ColumnsJSON:       BuildColumnsJSON([]string{"Document Number", "Revision"}),
		ColumnMappingJSON: BuildMappingJSON(map[int]string{0: "document_number", 1: "revision"}),
		Status:            "imported",
	}
	require.NoError(t, st.InsertSheetMeta(meta))

	got, err := st.ListSheetMeta("r")
	require.NoError(t, err)
	require.Equal(t, []model.SheetMeta{meta}, got)
	require.Equal(t, `["Document Number","Revision"]`, meta.ColumnsJSON)
	require.Equal(t, `{"0":"document_number","1":"revision"}`, meta.ColumnMappingJSON)
}

func TestCompleteRun_RollsBackOnFailure(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	require.NoError(t, st.CreateRun(&model.Run{ID: "run-1", Filename: "a.xlsx", CreatedAt: time.Now().UTC()}))

	// 同一 rank 重复，插入第二条时违反主键
	stacks := []model.StackSummary{
		{Rank: 1, StackID: "Stack_001", DocumentNumber: "A1", Rows: 1},
		{Rank: 1, StackID: "Stack_001", DocumentNumber: "A1", Rows: 1},
	}
	require.Error(t, st.CompleteRun("run-1", "Documents", "/tmp/out.xlsx", model.Summary{TotalRecords: 2}, stacks))

	got, err := st.GetRun("run-1")
	require.NoError(t, err)
	require.Equal(t, model.RunStatusProcessing, got.Status)
	require.Empty(t, got.SheetName)

	saved, err := st.GetRunStacks("run-1")
	require.NoError(t, err)
	require.Empty(t, saved)
}

func TestPing(t *testing.T) {
	t.Parallel()

	st, err := New(filepath.Join(t.TempDir(), "docstack.db"))
	require.NoError(t, err)
	require.NoError(t, st.Ping())
	require.NoError(t, st.Close())
	require.Error(t, st.Ping())
}
