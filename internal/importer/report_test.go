package importer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstack/internal/model"
)

func TestWriteReport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports", "run.json")
	report := &RunReport{
		RunID:    "run-1",
		Filename: "loadsheet.xlsx",
		Summary: model.Summary{
			TotalRecords: 3,
			Failures:     map[model.ErrorKind]int{model.ErrorAmbiguousRevision: 1},
		},
	}
	require.NoError(t, WriteReport(path, report))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got RunReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 1, got.Summary.Failures[model.ErrorAmbiguousRevision])
}
