// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"path/filepath"
)

// Volume range covered by the Derge Tengyur source text.
const (
	MinVolume = 1
	MaxVolume = 212
)

// CrossRefMode selects how inline {D...} cross-reference markers are rendered.
type CrossRefMode string

const (
	// CrossRefSuppress deletes markers from the output text.
	CrossRefSuppress CrossRefMode = "suppress"
	// CrossRefMilestone emits a text-unit milestone carrying the marker token.
	CrossRefMilestone CrossRefMode = "milestone"
)

// TextOptions controls the inline rewrites applied to each source line.
type TextOptions struct {
	// FixErrors keeps the correction B of an "(A,B)" pair instead of the
	// as-transcribed reading A.
	FixErrors bool `json:"fix_errors" yaml:"fix_errors"`

	// KeepErrorIndications retains the [ and ] uncertainty brackets in line text.
	KeepErrorIndications bool `json:"keep_error_indications" yaml:"keep_error_indications"`

	// CrossRefMode selects suppress (default) or milestone rendering of {D...} markers.
	CrossRefMode CrossRefMode `json:"cross_ref_mode" yaml:"cross_ref_mode"`
}

// ConversionConfig holds settings for a batch conversion run.
type ConversionConfig struct {
	TextOptions `yaml:",inline"`

	// SourceDir holds one tagged text file per volume, named with a
	// zero-padded three-digit volume prefix (e.g. "001_...txt").
	SourceDir string `json:"source_dir" yaml:"source_dir"`

	// OutputDir is the base directory; documents land under OutputDir/VersionTag/.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// FirstVolume and LastVolume bound the volumes to convert (default 1..212).
	FirstVolume int `json:"first_volume" yaml:"first_volume"`
	LastVolume  int `json:"last_volume" yaml:"last_volume"`

	// VersionTag names the output folder. Empty means derive from today's date.
	VersionTag string `json:"version_tag" yaml:"version_tag"`

	// SkipExisting leaves already-written volume documents untouched.
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing"`

	// ManifestDB is the SQLite run ledger path. Empty disables the ledger.
	ManifestDB string `json:"manifest_db" yaml:"manifest_db"`
}

// DefaultConversionConfig returns the settings of the canonical batch run.
func DefaultConversionConfig() ConversionConfig {
	return ConversionConfig{
		TextOptions: TextOptions{
			CrossRefMode: CrossRefSuppress,
		},
		SourceDir:   filepath.Join("..", "text"),
		OutputDir:   "output",
		FirstVolume: MinVolume,
		LastVolume:  MaxVolume,
		ManifestDB:  filepath.Join("output", "runs.db"),
	}
}

// Validate reports the first invalid setting, if any.
func (c ConversionConfig) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source directory is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.FirstVolume < MinVolume || c.LastVolume > MaxVolume {
		return fmt.Errorf("volume range %d..%d outside %d..%d", c.FirstVolume, c.LastVolume, MinVolume, MaxVolume)
	}
	if c.FirstVolume > c.LastVolume {
		return fmt.Errorf("first volume %d is after last volume %d", c.FirstVolume, c.LastVolume)
	}
	switch c.CrossRefMode {
	case "", CrossRefSuppress, CrossRefMilestone:
	default:
		return fmt.Errorf("unsupported cross-ref mode %q: use suppress or milestone", c.CrossRefMode)
	}
	return nil
}
