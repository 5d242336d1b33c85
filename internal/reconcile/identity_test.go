package reconcile

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSheetNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"trailing letters after group", "95019-ARC-B1-L02-A101.pdf", "", false},
		{"four hyphens", "95019-ARC-B1-L02-01.pdf", "01", true},
		{"three hyphens no extension", "95019-ARC-B1-07", "07", true},
		{"five hyphens", "95019-ARC-B1-L02-X-12.dwg", "12", true},
		{"two hyphens", "95019-ARC-07.pdf", "", false},
		{"six hyphens", "95019-ARC-B1-L02-X-Y-07.pdf", "", false},
		{"group too short", "95019-ARC-B1-7.pdf", "", false},
		{"group not numeric", "95019-ARC-B1-0A.pdf", "", false},
		{"three digits", "95019-ARC-B1-101.pdf", "", false},
		{"only last dot is extension", "95019-ARC.B1-L02-03.pdf", "03", true},
		{"blank", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSheetNumber(tc.in)
			require.Equal(t, tc.want, got)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrUnparseableIdentity)
		})
	}
}

func TestParseSheetNumber_HyphenCountDecides(t *testing.T) {
	t.Parallel()

	for hyps := 0; hyps <= 8; hyps++ {
		segments := make([]string, hyps)
		for i := range segments {
			segments[i] = fmt.Sprintf("S%d", i)
		}
		name := strings.Join(append(segments, "42"), "-") + ".pdf"
		if hyps == 0 {
			name = "42.pdf"
		}

		got, err := ParseSheetNumber(name)
		if hyps >= 3 && hyps <= 5 {
			require.NoError(t, err, name)
			require.Equal(t, "42", got, name)
			continue
		}
		require.ErrorIs(t, err, ErrUnparseableIdentity, name)
		require.Empty(t, got, name)
	}
}

func TestStripExtension(t *testing.T) {
	t.Parallel()

	require.Equal(t, "A-B-C-01", StripExtension("A-B-C-01.pdf"))
	require.Equal(t, "A-B-C-01.v2", StripExtension("A-B-C-01.v2.pdf"))
	require.Equal(t, "A-B-C-01", StripExtension("A-B-C-01"))
}
