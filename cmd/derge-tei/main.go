// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the derge-tei CLI, which converts
// line-tagged Derge Tengyur volumes into TEI-XML documents.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the derge-tei CLI.
var rootCmd = &cobra.Command{
	Use:   "derge-tei",
	Short: "Convert tagged Derge Tengyur volumes to TEI-XML",
	Long: `derge-tei turns the page/line tagged plain-text transcription of the
Derge Tengyur (one file per volume, every line prefixed with a locator such
as [12b.4]) into one TEI-XML document per volume with page and line milestones.

Output goes to <output-dir>/<version-tag>/UT23703-1<ignum>/, where the version
tag encodes the date of the run. Every run is recorded in a run ledger that
the runs subcommand can list and export.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./derge-tei.yaml or ~/.config/derge-tei/derge-tei.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("derge-tei")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "derge-tei"))
		}
	}

	viper.SetEnvPrefix("DERGE_TEI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
