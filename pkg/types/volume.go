// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strconv"
	"time"
)

// Identifiers baked into every generated document.
const (
	// IgnumOffset maps a volume number onto its TBRC image-group number.
	IgnumOffset = 316

	// WorkRID is the TBRC resource id of the Derge Tengyur.
	WorkRID = "W23703"

	// TextRIDPrefix prefixes per-volume text ids and output folders.
	TextRIDPrefix = "UT23703"
)

// Volume is one input file matched to its volume number.
type Volume struct {
	// Number is the volume number in 1..212.
	Number int `json:"number" yaml:"number"`

	// SourcePath is the path of the tagged text file for this volume.
	SourcePath string `json:"source_path" yaml:"source_path"`
}

// Ignum returns the derived image-group number, Number + 316.
func (v Volume) Ignum() int {
	return v.Number + IgnumOffset
}

// TextID returns the per-volume id, e.g. "UT23703-1317" for volume 1.
func (v Volume) TextID() string {
	return TextRIDPrefix + "-1" + strconv.Itoa(v.Ignum())
}

// ConversionStatus indicates what happened to a volume during a run.
type ConversionStatus string

const (
	ConversionDone    ConversionStatus = "converted"
	ConversionSkipped ConversionStatus = "skipped"
	ConversionMissing ConversionStatus = "missing"
	ConversionFailed  ConversionStatus = "failed"
)

// VolumeResult records the outcome of converting a single volume.
type VolumeResult struct {
	Volume     int              `json:"volume" yaml:"volume"`
	Ignum      int              `json:"ignum" yaml:"ignum"`
	Status     ConversionStatus `json:"status" yaml:"status"`
	SourcePath string           `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	OutputPath string           `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Title      string           `json:"title,omitempty" yaml:"title,omitempty"`

	// Lines is the number of input lines read, header lines included.
	Lines int `json:"lines" yaml:"lines"`

	// Pages is the number of page paragraphs emitted.
	Pages int `json:"pages" yaml:"pages"`

	// Milestones is the number of line milestones emitted.
	Milestones int `json:"milestones" yaml:"milestones"`

	// MalformedLines lists 1-based input line numbers dropped for a missing ']'.
	MalformedLines []int `json:"malformed_lines,omitempty" yaml:"malformed_lines,omitempty"`

	// Error holds the failure message when Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunRecord describes one batch conversion run for the manifest.
type RunRecord struct {
	// ID is assigned by the run ledger; zero until stored.
	ID         int64          `json:"id,omitempty" yaml:"id,omitempty"`
	VersionTag string         `json:"version_tag" yaml:"version_tag"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time      `json:"finished_at" yaml:"finished_at"`
	SourceDir  string         `json:"source_dir" yaml:"source_dir"`
	OutputDir  string         `json:"output_dir" yaml:"output_dir"`
	Options    TextOptions    `json:"options" yaml:"options"`
	Volumes    []VolumeResult `json:"volumes" yaml:"volumes"`
}

// Count returns the number of volumes with the given status.
func (r RunRecord) Count(status ConversionStatus) int {
	n := 0
	for _, v := range r.Volumes {
		if v.Status == status {
			n++
		}
	}
	return n
}
