package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"docstack/internal/reconcile"
)

func TestLoadConfigFrom_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DOCSTACK_PROJECT_CODE", "")
	t.Setenv("DOCSTACK_GCS_BUCKET", "")
	t.Setenv("DOCSTACK_GCS_ENDPOINT", "")

	cfg, info, err := LoadConfigFrom(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	require.False(t, info.PortSpecified)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFrom_TomlAndEnv(t *testing.T) {
	t.Setenv("DOCSTACK_PROJECT_CODE", "95019")
	t.Setenv("DOCSTACK_GCS_BUCKET", "")
	t.Setenv("DOCSTACK_GCS_ENDPOINT", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[server]
port = 8088

[reconcile]
sheet_name = "Documents"
stack_id_width = 4
project_code = "11111"

[[reconcile.date_columns]]
column = "Issued"
format = "yyyymmdd"

[[reconcile.date_columns]]
column = "Received"
format = "mmddyy"

[split]
rows_per_sheet = 100
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, info, err := LoadConfigFrom(path)
	require.NoError(t, err)
	require.True(t, info.PortSpecified)
	require.Equal(t, 8088, cfg.Server.Port)
	require.Equal(t, "Documents", cfg.Reconcile.SheetName)
	require.Equal(t, "95019", cfg.Reconcile.ProjectCode)
	require.Equal(t, 100, cfg.Split.RowsPerSheet)
	require.Equal(t, "IMP", cfg.Split.ImportCodePrefix)
	require.Equal(t, []string{"Issued", "Received"}, cfg.Reconcile.DateColumnNames())

	opts, err := cfg.Reconcile.Options()
	require.NoError(t, err)
	require.Equal(t, 4, opts.StackIDWidth)
	require.Equal(t, []reconcile.DateColumn{
		{Column: "Issued", Format: reconcile.DateYYYYMMDD},
		{Column: "Received", Format: reconcile.DateMMDDYY},
	}, opts.DateColumns)
}

func TestReconcileConfig_OptionsRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	c := DefaultConfig().Reconcile
	c.DateColumns = []DateColumnConfig{{Column: "Issued", Format: "ddmmyyyy"}}
	_, err := c.Options()
	require.Error(t, err)

	c = DefaultConfig().Reconcile
	c.XrefIdentityField = "title"
	_, err = c.Options()
	require.Error(t, err)
}

func TestEnsureDataDir(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "data")
	dir, err := EnsureDataDir(cfg)
	require.NoError(t, err)
	for _, sub := range []string{"uploads", "exports", "splits"} {
		st, err := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, err)
		require.True(t, st.IsDir())
	}
	require.Equal(t, filepath.Join(dir, "exports", "a.xlsx"), GetDataPath(cfg, "exports", "a.xlsx"))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "conf", "config.toml")
	cfg := DefaultConfig()
	cfg.Server.Port = 21000
	cfg.Reconcile.DateColumns = []DateColumnConfig{{Column: "Issued", Format: "yymmdd"}}
	require.NoError(t, SaveConfig(cfg, path))

	_, err := os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))

	got, info, err := LoadConfigFrom(path)
	require.NoError(t, err)
	require.True(t, info.PortSpecified)
	require.Equal(t, 21000, got.Server.Port)
	require.Equal(t, cfg.Reconcile.DateColumns, got.Reconcile.DateColumns)
}
