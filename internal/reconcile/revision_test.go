package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRevision(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw    string
		legacy bool
		kind   RevisionKind
		major  int
		minor  int
		canon  string
	}{
		{"3", false, RevisionNumeric, 3, 0, "3"},
		{" 12 ", false, RevisionNumeric, 12, 0, "12"},
		{"3.0", false, RevisionNumeric, 3, 0, "3"},
		{"a", false, RevisionLetter, 1, 0, "A"},
		{"J", false, RevisionLetter, 10, 0, "J"},
		{"1(2)", true, RevisionLegacyDecimal, 1, 2, "1.2"},
		{"0.0", true, RevisionLegacyDecimal, 0, 0, "0.0"},
		{"4", true, RevisionLegacyDecimal, 4, 0, "4.0"},
		{"C", true, RevisionLetter, 3, 0, "C"},
	}
	for _, tc := range cases {
		got, err := ParseRevision(tc.raw, tc.legacy)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.kind, got.Kind, tc.raw)
		assert.Equal(t, tc.major, got.Major, tc.raw)
		assert.Equal(t, tc.minor, got.Minor, tc.raw)
		assert.Equal(t, tc.canon, got.String(), tc.raw)
	}
}

func TestParseRevision_Rejects(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "AB", "1(2)", "3.5", "P01", "-1"} {
		_, err := ParseRevision(raw, false)
		require.ErrorIs(t, err, ErrAmbiguousRevision, raw)
	}
	_, err := ParseRevision("1(x)", true)
	require.ErrorIs(t, err, ErrAmbiguousRevision)
}

func candidatesOf(t *testing.T, legacy bool, raws ...string) []RevisionCandidate {
	t.Helper()
	out := make([]RevisionCandidate, 0, len(raws))
	for i, raw := range raws {
		rev, err := ParseRevision(raw, legacy)
		require.NoError(t, err, raw)
		out = append(out, RevisionCandidate{RowNo: i + 1, Revision: rev})
	}
	return out
}

func TestResolveLatest_Letters(t *testing.T) {
	t.Parallel()

	c := candidatesOf(t, false, "A", "B", "J")
	best, err := ResolveLatest(c)
	require.NoError(t, err)
	require.Equal(t, "J", c[best].Revision.String())
}

func TestResolveLatest_NumericMaximum(t *testing.T) {
	t.Parallel()

	c := candidatesOf(t, false, "2", "10", "9", "1")
	best, err := ResolveLatest(c)
	require.NoError(t, err)
	require.Equal(t, 10, c[best].Revision.Major)
}

func TestResolveLatest_Legacy(t *testing.T) {
	t.Parallel()

	c := candidatesOf(t, true, "1(2)", "1(10)", "0.0")
	best, err := ResolveLatest(c)
	require.NoError(t, err)
	require.Equal(t, "1.10", c[best].Revision.String())
}

func TestResolveLatest_MixedKindsAmbiguous(t *testing.T) {
	t.Parallel()

	_, err := ResolveLatest(candidatesOf(t, false, "1", "A"))
	require.ErrorIs(t, err, ErrAmbiguousRevision)
}

func TestResolveLatest_TieAmbiguous(t *testing.T) {
	t.Parallel()

	_, err := ResolveLatest(candidatesOf(t, false, "B", "C", "c"))
	require.ErrorIs(t, err, ErrAmbiguousRevision)

	// 并列不在最大值上时不影响结果
	c := candidatesOf(t, false, "A", "A", "B")
	best, err := ResolveLatest(c)
	require.NoError(t, err)
	require.Equal(t, 3, c[best].RowNo)
}

func TestResolveLatest_Empty(t *testing.T) {
	t.Parallel()

	_, err := ResolveLatest(nil)
	require.ErrorIs(t, err, ErrAmbiguousRevision)
}
