package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"docstack/internal/model"
)

func TestClassifier_Priority(t *testing.T) {
	t.Parallel()

	c := Classifier{ProjectCode: "95019", IdentityField: IdentityDocumentNumber}
	cases := []struct {
		name string
		rec  model.Record
		want model.XrefClass
	}{
		{"3d model wins over xref", model.Record{Titles: []string{"Level 2", "3d Model XREF"}}, model.Xref3DModel},
		{"xref", model.Record{Titles: []string{"Grid Xref"}}, model.XrefTitle},
		{"x ref", model.Record{Titles: []string{"GRID X REF"}}, model.XrefTitle},
		{"x-ref", model.Record{Titles: []string{"site x-ref plan"}}, model.XrefTitle},
		{"foreign identity", model.Record{DocumentNumber: "ABC-ARC-01", Titles: []string{"Plan"}}, model.XrefProp},
		{"project identity", model.Record{DocumentNumber: "95019-ARC-01"}, model.XrefNone},
		{"single uppercase", model.Record{DocumentNumber: "A-001"}, model.XrefNone},
		{"plain", model.Record{DocumentNumber: "95019-001", Titles: []string{"Ground floor plan"}}, model.XrefNone},
		{"xref in second title", model.Record{DocumentNumber: "95019-001", Titles: []string{"Level 2", "Grid XREF"}}, model.XrefTitle},
		{"x ref across titles", model.Record{DocumentNumber: "95019-001", Titles: []string{"BOX", "REF DRAWING"}}, model.XrefNone},
		{"3d model across titles", model.Record{DocumentNumber: "95019-001", Titles: []string{"LEVEL 3D", "MODEL ROOM"}}, model.XrefNone},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, c.Classify(tc.rec), tc.name)
	}
}

func TestClassifier_NoProjectCodeDisablesPropRule(t *testing.T) {
	t.Parallel()

	c := Classifier{}
	require.Equal(t, model.XrefNone, c.Classify(model.Record{DocumentNumber: "ABC-ARC-01"}))
}

func TestClassifier_DocumentNameIdentity(t *testing.T) {
	t.Parallel()

	c := Classifier{ProjectCode: "95019", IdentityField: IdentityDocumentName}
	rec := model.Record{DocumentNumber: "95019-01", DocumentName: "OTHER-ARC-01.pdf"}
	require.Equal(t, model.XrefProp, c.Classify(rec))
}
