// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs the batch conversion of tagged volume files into TEI
// documents under a dated version folder.
package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/esukhia/derge-tei/internal/manifest"
	"github.com/esukhia/derge-tei/internal/tei"
	"github.com/esukhia/derge-tei/internal/volume"
	"github.com/esukhia/derge-tei/pkg/types"
)

// manifestFile is written into the version folder after each run.
const manifestFile = "manifest.yaml"

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Missing   int
	Failed    int

	// Run is the full record of the batch, ready for the run ledger.
	Run types.RunRecord
}

// Total returns the number of volumes in the requested range.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Missing + r.Failed
}

// HasFailures reports whether any volume failed with an I/O error.
// Missing volumes do not count as failures.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// VersionTag returns the output folder name for a run on day t,
// e.g. "UT23703-261019".
func VersionTag(t time.Time) string {
	return types.TextRIDPrefix + "-" + t.Format("060102")
}

// OutputPath returns outDir/tag/UT23703-1<ignum>/UT23703-1<ignum>-0000.xml.
func OutputPath(outDir, tag string, v types.Volume) string {
	id := v.TextID()
	return filepath.Join(outDir, tag, id, id+"-0000.xml")
}

// ConvertVolume transduces one volume file to outPath and returns its result.
// Malformed lines are reported to w as warnings; the volume still converts.
func ConvertVolume(v types.Volume, norm *tei.Normalizer, outPath string, skipExisting bool, w io.Writer) types.VolumeResult {
	res := types.VolumeResult{
		Volume:     v.Number,
		Ignum:      v.Ignum(),
		SourcePath: v.SourcePath,
		OutputPath: outPath,
	}

	if skipExisting {
		if _, err := os.Stat(outPath); err == nil {
			fmt.Fprintf(w, "skipped: volume %d (%s already exists)\n", v.Number, outPath)
			res.Status = types.ConversionSkipped
			return res
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return failed(w, res, err)
	}

	stats, err := convertFile(v, norm, outPath)
	res.Title = stats.Title
	res.Lines = stats.Lines
	res.Pages = stats.Pages
	res.Milestones = stats.Milestones
	for _, le := range stats.Malformed {
		fmt.Fprintf(w, "warning: volume %d: %v\n", v.Number, le)
		res.MalformedLines = append(res.MalformedLines, le.Line)
	}
	if err != nil {
		return failed(w, res, err)
	}

	fmt.Fprintf(w, "converted: volume %d -> %s (%d pages, %d lines, last %s)\n",
		v.Number, outPath, res.Pages, res.Lines, stats.Last)
	res.Status = types.ConversionDone
	return res
}

func failed(w io.Writer, res types.VolumeResult, err error) types.VolumeResult {
	fmt.Fprintf(w, "failed:  volume %d (%v)\n", res.Volume, err)
	res.Status = types.ConversionFailed
	res.Error = err.Error()
	return res
}

// convertFile holds both file handles for exactly one volume and releases
// them on every return path.
func convertFile(v types.Volume, norm *tei.Normalizer, outPath string) (stats tei.Stats, err error) {
	in, err := os.Open(v.SourcePath)
	if err != nil {
		return stats, fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return stats, fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()

	return tei.Transduce(in, out, v.Number, v.Ignum(), norm)
}

// ConvertBatch converts every volume of cfg's range found in cfg.SourceDir,
// printing per-volume status to w and returning a summary. Volumes without a
// source file are reported and get no output. Only an invalid config or an
// unreadable source directory returns an error.
func ConvertBatch(cfg types.ConversionConfig, w io.Writer) (BatchResult, error) {
	if err := cfg.Validate(); err != nil {
		return BatchResult{}, fmt.Errorf("invalid config: %w", err)
	}

	tag := cfg.VersionTag
	if tag == "" {
		tag = VersionTag(time.Now())
	}

	idx, err := volume.Scan(cfg.SourceDir)
	if err != nil {
		return BatchResult{}, err
	}
	dups := make([]int, 0, len(idx.Duplicates))
	for num := range idx.Duplicates {
		dups = append(dups, num)
	}
	sort.Ints(dups)
	for _, num := range dups {
		fmt.Fprintf(w, "warning: volume %d: ignoring %v, using %s\n", num, idx.Duplicates[num], idx.Files[num])
	}

	found, _ := idx.Resolve(cfg.FirstVolume, cfg.LastVolume)
	byNumber := make(map[int]types.Volume, len(found))
	for _, v := range found {
		byNumber[v.Number] = v
	}

	result := BatchResult{
		Run: types.RunRecord{
			VersionTag: tag,
			StartedAt:  time.Now().UTC(),
			SourceDir:  cfg.SourceDir,
			OutputDir:  cfg.OutputDir,
			Options:    cfg.TextOptions,
		},
	}
	norm := tei.NewNormalizer(cfg.TextOptions)

	for n := cfg.FirstVolume; n <= cfg.LastVolume; n++ {
		v, ok := byNumber[n]
		if !ok {
			fmt.Fprintf(w, "missing: no file found for volume %d\n", n)
			result.Missing++
			result.Run.Volumes = append(result.Run.Volumes, types.VolumeResult{
				Volume: n,
				Ignum:  n + types.IgnumOffset,
				Status: types.ConversionMissing,
			})
			continue
		}

		res := ConvertVolume(v, norm, OutputPath(cfg.OutputDir, tag, v), cfg.SkipExisting, w)
		switch res.Status {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionSkipped:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
		result.Run.Volumes = append(result.Run.Volumes, res)
	}
	result.Run.FinishedAt = time.Now().UTC()

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d missing, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Missing, result.Failed, result.Total())

	if result.Converted > 0 || result.Skipped > 0 {
		path := filepath.Join(cfg.OutputDir, tag, manifestFile)
		if err := manifest.WriteYAML(path, result.Run); err != nil {
			fmt.Fprintf(w, "warning: %s write failed: %v\n", manifestFile, err)
		}
	}

	return result, nil
}

// ParseVolumeRange turns a "7" or "3-5" argument into a volume range.
func ParseVolumeRange(arg string) (first, last int, err error) {
	lo, hi, ok := strings.Cut(arg, "-")
	if !ok {
		hi = lo
	}
	if first, err = strconv.Atoi(lo); err != nil {
		return 0, 0, fmt.Errorf("invalid volume %q: %w", lo, err)
	}
	if last, err = strconv.Atoi(hi); err != nil {
		return 0, 0, fmt.Errorf("invalid volume %q: %w", hi, err)
	}
	return first, last, nil
}
