// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/esukhia/derge-tei/internal/convert"
	"github.com/esukhia/derge-tei/internal/manifest"
	"github.com/esukhia/derge-tei/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [volumes]",
	Short: "Convert tagged volume files to TEI-XML",
	Long: `Convert reads every volume file in the source directory whose name starts
with a three-digit volume number and writes one TEI document per volume.
Volumes without a source file are reported and skipped; lines with a broken
locator are reported and dropped.

An optional argument limits the run to one volume ("7") or a range ("3-15").`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

// convertKeys maps viper keys to the flags bound to them.
var convertKeys = map[string]string{
	"convert.source_dir":             "source-dir",
	"convert.output_dir":             "output-dir",
	"convert.first_volume":           "first",
	"convert.last_volume":            "last",
	"convert.version_tag":            "version-tag",
	"convert.fix_errors":             "fix-errors",
	"convert.keep_error_indications": "keep-error-indications",
	"convert.cross_ref_mode":         "cross-ref-mode",
	"convert.skip_existing":          "skip-existing",
	"convert.manifest_db":            "manifest-db",
}

func init() {
	def := types.DefaultConversionConfig()

	convertCmd.Flags().String("source-dir", def.SourceDir, "directory holding one tagged text file per volume")
	convertCmd.Flags().String("output-dir", def.OutputDir, "base directory for versioned output")
	convertCmd.Flags().Int("first", def.FirstVolume, "first volume to convert")
	convertCmd.Flags().Int("last", def.LastVolume, "last volume to convert")
	convertCmd.Flags().String("version-tag", "", "output folder name (default UT23703-<yymmdd>)")
	convertCmd.Flags().Bool("fix-errors", false, "keep the correction of (reading,correction) pairs")
	convertCmd.Flags().Bool("keep-error-indications", false, "keep [ ] uncertainty brackets in the text")
	convertCmd.Flags().String("cross-ref-mode", string(def.CrossRefMode), "render {D...} markers: suppress or milestone")
	convertCmd.Flags().Bool("skip-existing", false, "leave existing volume documents untouched")
	convertCmd.Flags().String("manifest-db", "", "run ledger database (default <output-dir>/runs.db, \"none\" disables)")

	for key, flag := range convertKeys {
		_ = viper.BindPFlag(key, convertCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(convertCmd)
}

// conversionConfig merges flags, environment and config file into a
// ConversionConfig.
func conversionConfig(args []string) (types.ConversionConfig, error) {
	cfg := types.ConversionConfig{
		TextOptions: types.TextOptions{
			FixErrors:            viper.GetBool("convert.fix_errors"),
			KeepErrorIndications: viper.GetBool("convert.keep_error_indications"),
			CrossRefMode:         types.CrossRefMode(viper.GetString("convert.cross_ref_mode")),
		},
		SourceDir:    viper.GetString("convert.source_dir"),
		OutputDir:    viper.GetString("convert.output_dir"),
		FirstVolume:  viper.GetInt("convert.first_volume"),
		LastVolume:   viper.GetInt("convert.last_volume"),
		VersionTag:   viper.GetString("convert.version_tag"),
		SkipExisting: viper.GetBool("convert.skip_existing"),
		ManifestDB:   viper.GetString("convert.manifest_db"),
	}

	switch cfg.ManifestDB {
	case "":
		cfg.ManifestDB = filepath.Join(cfg.OutputDir, "runs.db")
	case "none":
		cfg.ManifestDB = ""
	}

	if len(args) == 1 {
		first, last, err := convert.ParseVolumeRange(args[0])
		if err != nil {
			return cfg, err
		}
		cfg.FirstVolume, cfg.LastVolume = first, last
	}
	return cfg, cfg.Validate()
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := conversionConfig(args)
	if err != nil {
		return err
	}

	result, err := convert.ConvertBatch(cfg, os.Stdout)
	if err != nil {
		return err
	}

	if cfg.ManifestDB != "" {
		if err := recordRun(cmd.Context(), cfg.ManifestDB, result.Run); err != nil {
			fmt.Fprintf(os.Stderr, "warning: run not recorded: %v\n", err)
		}
	}

	if result.HasFailures() {
		return fmt.Errorf("%d volume(s) failed conversion", result.Failed)
	}
	return nil
}

func recordRun(ctx context.Context, dbPath string, run types.RunRecord) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := manifest.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.RecordRun(ctx, run)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded run %d in %s\n", id, dbPath)
	return nil
}
