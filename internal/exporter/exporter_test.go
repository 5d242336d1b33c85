package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"docstack/internal/model"
	"docstack/internal/reconcile"
)

func reconciledInput(t *testing.T) Input {
	t.Helper()

	headers := []string{"Document Name", "Document Number", "Revision", "Issued"}
	records := []model.Record{
		{RowNo: 1, DocumentName: "95019-ARC-B1-L01-01.pdf", DocumentNumber: "D1", Revision: "A",
			Dates: map[string]string{"Issued": "20240115"}, Cells: []string{"95019-ARC-B1-L01-01.pdf", "D1", "A", "20240115"}},
		{RowNo: 2, DocumentName: "95019-ARC-B1-L01-02.pdf", DocumentNumber: "D1", Revision: "B",
			Dates: map[string]string{"Issued": "bad"}, Cells: []string{"95019-ARC-B1-L01-02.pdf", "D1", "B", "bad"}},
		{RowNo: 3, DocumentName: "NOHYPHEN.pdf", DocumentNumber: "D2", Revision: "1",
			Cells: []string{"NOHYPHEN.pdf", "D2", "1"}},
	}
	opts := reconcile.DefaultOptions()
	opts.DateColumns = []reconcile.DateColumn{{Column: "Issued", Format: reconcile.DateYYYYMMDD}}
	res, err := reconcile.New(opts, nil).Reconcile(context.Background(), records)
	require.NoError(t, err)

	return Input{Headers: headers, Records: records, Result: res, DateColumns: []string{"Issued"}}
}

func TestExport_Workbook(t *testing.T) {
	t.Parallel()

	var events []ProgressEvent
	f, err := NewExporter().Export(reconciledInput(t), func(ev ProgressEvent) { events = append(events, ev) })
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	require.Equal(t, []string{SheetReconciled, SheetStacks, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetReconciled)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	header := rows[0]
	require.Equal(t, "Document Name", header[0])
	require.Equal(t, ColStackID, header[4])
	require.Contains(t, header, "Issued (Normalized)")
	require.Equal(t, ColErrors, header[len(header)-1])

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %s", name)
		return -1
	}
	require.Equal(t, "Stack_001", rows[1][col(ColStackID)])
	require.Equal(t, "B", rows[1][col(ColLatestRevision)])
	require.Equal(t, "15/01/2024", rows[1][col("Issued (Normalized)")])
	require.Equal(t, "review", rows[2][col("Issued (Normalized)")])
	require.Equal(t, "Stack_002", rows[3][col(ColStackID)])
	require.Contains(t, rows[3][col(ColErrors)], "UnparseableIdentity(document_name)")

	stacks, err := f.GetRows(SheetStacks)
	require.NoError(t, err)
	require.Len(t, stacks, 3)
	require.Equal(t, "Stack_001", stacks[1][0])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Equal(t, []string{"Total Records", "3"}, summary[1])

	require.NotEmpty(t, events)
	require.Equal(t, 0, events[0].Percent)
	require.Equal(t, 100, events[len(events)-1].Percent)
	for i := 1; i < len(events); i++ {
		require.GreaterOrEqual(t, events[i].Percent, events[i-1].Percent)
	}
}

func TestReconciledRows_Mismatch(t *testing.T) {
	t.Parallel()

	in := reconciledInput(t)
	in.Records = in.Records[:2]
	_, _, err := ReconciledRows(in)
	require.Error(t, err)
}

func TestFormatErrors(t *testing.T) {
	t.Parallel()

	got := FormatErrors([]model.RecordError{
		{Kind: model.ErrorInvalidDate, Field: "Issued"},
		{Kind: model.ErrorAmbiguousRevision, Field: "revision"},
	})
	require.Equal(t, "InvalidDate(Issued); AmbiguousRevision(revision)", got)
	require.Empty(t, FormatErrors(nil))
}
