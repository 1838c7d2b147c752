// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/esukhia/derge-tei/internal/manifest"
	"github.com/esukhia/derge-tei/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the conversion run ledger (list, show, export)",
	Long: `Runs reads the SQLite ledger that convert writes after every batch.
Use subcommands to list recent runs, show per-volume results, or export a run.`,
}

// --- list subcommand ---

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent conversion runs",
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Runs(context.Background(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-16s  %-20s  %9s  %7s  %7s  %6s  %9s\n",
		"ID", "Version", "Started", "Converted", "Skipped", "Missing", "Failed", "Malformed")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 96))
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-5d  %-16s  %-20s  %9d  %7d  %7d  %6d  %9d\n",
			r.ID, r.VersionTag, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Converted, r.Skipped, r.Missing, r.Failed, r.Malformed)
	}
	return nil
}

// --- show subcommand ---

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show per-volume results of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	store, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Run(context.Background(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %d (%s), fix_errors=%v keep_error_indications=%v cross_ref_mode=%s\n",
		run.ID, run.VersionTag, run.Options.FixErrors, run.Options.KeepErrorIndications, run.Options.CrossRefMode)
	fmt.Fprintf(out, "%d converted, %d skipped, %d missing, %d failed\n\n",
		run.Count(types.ConversionDone), run.Count(types.ConversionSkipped),
		run.Count(types.ConversionMissing), run.Count(types.ConversionFailed))
	fmt.Fprintf(out, "%-6s  %-10s  %6s  %6s  %9s  %s\n", "Volume", "Status", "Pages", "Lines", "Malformed", "Title")
	fmt.Fprintln(out, strings.Repeat("-", 80))
	for _, v := range run.Volumes {
		title := v.Title
		if v.Error != "" {
			title = v.Error
		}
		fmt.Fprintf(out, "%-6d  %-10s  %6d  %6d  %9d  %s\n",
			v.Volume, v.Status, v.Pages, v.Lines, len(v.MalformedLines), title)
	}
	return nil
}

// --- export subcommand ---

var runsExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run to YAML or JSON",
	Long: `Export writes a stored run with all volume results to a file
(default run-<id>.yaml or run-<id>.json in the current directory).`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsExport,
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	store, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	switch format {
	case "yaml", "":
		if out == "" {
			out = fmt.Sprintf("run-%d.yaml", id)
		}
		err = store.ExportYAML(ctx, id, out)
	case "json":
		if out == "" {
			out = fmt.Sprintf("run-%d.json", id)
		}
		err = store.ExportJSON(ctx, id, out)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", out)
	return nil
}

// --- shared helpers ---

func openLedger(cmd *cobra.Command) (*manifest.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = viper.GetString("convert.manifest_db")
	}
	if path == "" || path == "none" {
		path = filepath.Join(viper.GetString("convert.output_dir"), "runs.db")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no run ledger at %s: %w", path, err)
	}
	return manifest.NewStore(path)
}

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", arg)
	}
	return id, nil
}

func init() {
	runsCmd.PersistentFlags().String("db", "", "run ledger database (default <output-dir>/runs.db)")

	runsListCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")
	runsListCmd.Flags().Bool("json", false, "output runs as JSON")

	runsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	runsExportCmd.Flags().String("out", "", "output file path")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsExportCmd)

	rootCmd.AddCommand(runsCmd)
}
