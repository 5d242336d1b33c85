package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"docstack/internal/model"
)

func recordsFor(numbers ...string) []model.Record {
	out := make([]model.Record, len(numbers))
	for i, n := range numbers {
		out[i] = model.Record{RowNo: i + 1, DocumentNumber: n}
	}
	return out
}

func TestAssignStackIDs_FirstSeenOrder(t *testing.T) {
	t.Parallel()

	order := DistinctOrder(recordsFor("DOC-A", "DOC-B", "DOC-A", "DOC-C"))
	got := AssignStackIDs(order, DefaultStackIDWidth)

	want := map[string]string{
		"DOC-A": "Stack_001",
		"DOC-B": "Stack_002",
		"DOC-C": "Stack_003",
	}
	if diff := cmp.Diff(want, got.IDs); diff != "" {
		t.Fatalf("stack ids mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, got.Overflow)
}

func TestAssignStackIDs_Idempotent(t *testing.T) {
	t.Parallel()

	order := DistinctOrder(recordsFor("X", "Y", "Z", "Y"))
	first := AssignStackIDs(order, DefaultStackIDWidth)
	second := AssignStackIDs(order, DefaultStackIDWidth)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second run differs:\n%s", diff)
	}
}

func TestAssignStackIDs_DuplicateRowsDoNotShiftOthers(t *testing.T) {
	t.Parallel()

	base := AssignStackIDs(DistinctOrder(recordsFor("A", "B", "C")), DefaultStackIDWidth)
	more := AssignStackIDs(DistinctOrder(recordsFor("A", "B", "B", "A", "C", "B")), DefaultStackIDWidth)
	if diff := cmp.Diff(base.IDs, more.IDs); diff != "" {
		t.Fatalf("duplicated rows changed ids:\n%s", diff)
	}
}

func TestDistinctOrder_NormalisesKey(t *testing.T) {
	t.Parallel()

	got := DistinctOrder(recordsFor(" doc-a", "DOC-A ", "Doc-B"))
	require.Equal(t, []string{"DOC-A", "DOC-B"}, got)
}

func TestAssignStackIDs_Overflow(t *testing.T) {
	t.Parallel()

	order := []string{"K1", "K2", "K3", "K4", "K5", "K6", "K7", "K8", "K9", "K10", "K11"}
	got := AssignStackIDs(order, 1)

	require.Equal(t, 9, StackCapacity(1))
	require.Equal(t, "Stack_9", got.IDs["K9"])
	require.Equal(t, []string{"K10", "K11"}, got.Overflow)

	_, err := got.Lookup("K10")
	require.ErrorIs(t, err, ErrStackOverflow)

	id, err := got.Lookup("K1")
	require.NoError(t, err)
	require.Equal(t, "Stack_1", id)
}

func TestFormatStackID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Stack_001", FormatStackID(1, 3))
	require.Equal(t, "Stack_999", FormatStackID(999, 3))
	require.Equal(t, "Stack_0042", FormatStackID(42, 4))
	require.Equal(t, 999, StackCapacity(DefaultStackIDWidth))
}
