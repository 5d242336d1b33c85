package parser

import "testing"

func TestNormalizeColumnName(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Document Number", "document_number", " DOCUMENT\nNUMBER ", "Document\tNumber"} {
		if got := NormalizeColumnName(in); got != "documentnumber" {
			t.Fatalf("NormalizeColumnName(%q)=%q", in, got)
		}
	}
}

func TestMatchField_Aliases(t *testing.T) {
	t.Parallel()

	expect := map[string]string{
		"Document Name":         FieldDocumentName,
		"File Name":             FieldDocumentName,
		"Doc Number":            FieldDocumentNumber,
		"Temp Revision Number":  FieldRevision,
		"Rev":                   FieldRevision,
		"Legacy Version Number": FieldLegacyRevision,
		"Is Legacy":             FieldLegacyMode,
		"Sheet No":              FieldSheetNumber,
		"rendition_path":        FieldRenditionPath,
		"Title 2":               FieldTitle,
		"Description":           FieldTitle,
		"Stack ID":              "",
		"Revision Date":         "",
	}
	for header, want := range expect {
		if got := MatchField(NormalizeColumnName(header)); got != want {
			t.Fatalf("%q want=%q got=%q", header, want, got)
		}
	}
}

func TestTruthy(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"TRUE", "yes", "Y", "1", "t"} {
		if !Truthy(v) {
			t.Fatalf("%q should be truthy", v)
		}
	}
	for _, v := range []string{"", "no", "0", "false", "nan"} {
		if Truthy(v) {
			t.Fatalf("%q should not be truthy", v)
		}
	}
}

func TestNormalizeSheetNumber(t *testing.T) {
	t.Parallel()

	cases := map[string]string{"1": "01", "07": "07", "12": "12", "": "", "A1": "A1", " 3 ": "03"}
	for in, want := range cases {
		if got := NormalizeSheetNumber(in); got != want {
			t.Fatalf("NormalizeSheetNumber(%q)=%q want %q", in, got, want)
		}
	}
}
