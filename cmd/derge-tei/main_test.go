// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esukhia/derge-tei/internal/manifest"
	"github.com/esukhia/derge-tei/pkg/types"
)

// resetFlags restores every flag of cmd's flag sets to its default.
func resetFlags(t *testing.T, sets ...*pflag.FlagSet) {
	t.Helper()
	t.Cleanup(func() {
		for _, fs := range sets {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
	})
}

func TestConversionConfig_Defaults(t *testing.T) {
	resetFlags(t, convertCmd.Flags())

	cfg, err := conversionConfig(nil)
	require.NoError(t, err)

	def := types.DefaultConversionConfig()
	assert.Equal(t, def.SourceDir, cfg.SourceDir)
	assert.Equal(t, 1, cfg.FirstVolume)
	assert.Equal(t, 212, cfg.LastVolume)
	assert.False(t, cfg.FixErrors)
	assert.False(t, cfg.KeepErrorIndications)
	assert.Equal(t, types.CrossRefSuppress, cfg.CrossRefMode)
	assert.Equal(t, filepath.Join("output", "runs.db"), cfg.ManifestDB)
}

func TestConversionConfig_FlagsAndRange(t *testing.T) {
	resetFlags(t, convertCmd.Flags())

	require.NoError(t, convertCmd.Flags().Set("fix-errors", "true"))
	require.NoError(t, convertCmd.Flags().Set("output-dir", "out"))
	require.NoError(t, convertCmd.Flags().Set("manifest-db", "none"))
	require.NoError(t, convertCmd.Flags().Set("cross-ref-mode", "milestone"))

	cfg, err := conversionConfig([]string{"3-5"})
	require.NoError(t, err)
	assert.True(t, cfg.FixErrors)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Empty(t, cfg.ManifestDB)
	assert.Equal(t, types.CrossRefMilestone, cfg.CrossRefMode)
	assert.Equal(t, 3, cfg.FirstVolume)
	assert.Equal(t, 5, cfg.LastVolume)
}

func TestConversionConfig_ManifestDB(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"empty uses the output dir", "", filepath.Join("out", "runs.db")},
		{"explicit path is kept", filepath.Join("ledger", "custom.db"), filepath.Join("ledger", "custom.db")},
		{"none disables the ledger", "none", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t, convertCmd.Flags())
			require.NoError(t, convertCmd.Flags().Set("output-dir", "out"))
			require.NoError(t, convertCmd.Flags().Set("manifest-db", tt.value))

			cfg, err := conversionConfig(nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.ManifestDB)
		})
	}
}

func TestConversionConfig_Invalid(t *testing.T) {
	resetFlags(t, convertCmd.Flags())

	_, err := conversionConfig([]string{"0-300"})
	assert.Error(t, err)

	require.NoError(t, convertCmd.Flags().Set("cross-ref-mode", "inline"))
	_, err = conversionConfig(nil)
	assert.ErrorContains(t, err, "unsupported cross-ref mode")
}

func TestConvertCommand_RecordsRun(t *testing.T) {
	resetFlags(t, convertCmd.Flags(), runsCmd.PersistentFlags(), runsExportCmd.Flags())

	tmpDir := t.TempDir()
	srcDir := filepath.Join(tmpDir, "text")
	outDir := filepath.Join(tmpDir, "output")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "002_x.txt"),
		[]byte("\ufeffmeta\n[1a.1]Title\n[1a.2]line\n"), 0o644))

	rootCmd.SetArgs([]string{"convert", "1-2",
		"--source-dir", srcDir, "--output-dir", outDir, "--version-tag", "UT23703-test"})
	require.NoError(t, rootCmd.Execute())

	_, err := os.Stat(filepath.Join(outDir, "UT23703-test", "UT23703-1318", "UT23703-1318-0000.xml"))
	require.NoError(t, err)

	dbPath := filepath.Join(outDir, "runs.db")
	store, err := manifest.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.Runs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Converted)
	assert.Equal(t, 1, runs[0].Missing)

	var shown bytes.Buffer
	rootCmd.SetOut(&shown)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	rootCmd.SetArgs([]string{"runs", "show", "1", "--db", dbPath})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, shown.String(), "Run 1 (UT23703-test)")
	assert.Contains(t, shown.String(), "1 converted, 0 skipped, 1 missing, 0 failed")
	assert.Contains(t, shown.String(), "Title")

	exportPath := filepath.Join(tmpDir, "run.json")
	rootCmd.SetArgs([]string{"runs", "export", "1", "--db", dbPath, "--format", "json", "--out", exportPath})
	require.NoError(t, rootCmd.Execute())
	_, err = os.Stat(exportPath)
	assert.NoError(t, err)
}

func TestParseRunID(t *testing.T) {
	id, err := parseRunID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = parseRunID("0")
	assert.Error(t, err)
	_, err = parseRunID("abc")
	assert.Error(t, err)
}
