// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package volume maps Tengyur volume numbers to the tagged text files in a
// source directory. Files are matched by their zero-padded three-digit
// prefix, e.g. "042_dbu ma.txt" is volume 42.
package volume

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/esukhia/derge-tei/pkg/types"
)

var prefixRE = regexp.MustCompile(`^(\d{3})`)

// Index is the result of scanning a source directory.
type Index struct {
	// Dir is the scanned directory.
	Dir string

	// Files maps a volume number to its file name inside Dir.
	Files map[int]string

	// Duplicates lists extra file names claiming an already-mapped volume.
	// The lexically first name wins.
	Duplicates map[int][]string
}

// Scan lists dir and maps each file with a three-digit numeric prefix to
// its volume number. Directories, dotfiles and unprefixed names are ignored.
func Scan(dir string) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}

	idx := &Index{
		Dir:        dir,
		Files:      make(map[int]string),
		Duplicates: make(map[int][]string),
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		num, ok := Number(name)
		if !ok {
			continue
		}
		if _, taken := idx.Files[num]; taken {
			idx.Duplicates[num] = append(idx.Duplicates[num], name)
			continue
		}
		idx.Files[num] = name
	}
	return idx, nil
}

// Number extracts the volume number from a file name's three-digit prefix.
func Number(name string) (int, bool) {
	m := prefixRE.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Resolve returns the volumes first..last found in the index, in order, and
// the numbers in that range that have no file.
func (idx *Index) Resolve(first, last int) (found []types.Volume, missing []int) {
	for n := first; n <= last; n++ {
		name, ok := idx.Files[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		found = append(found, types.Volume{
			Number:     n,
			SourcePath: filepath.Join(idx.Dir, name),
		})
	}
	return found, missing
}

// CountLines returns the number of lines across all indexed volume files.
// A final line without a newline still counts.
func (idx *Index) CountLines() (int, error) {
	total := 0
	for _, name := range idx.Files {
		data, err := os.ReadFile(filepath.Join(idx.Dir, name))
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", name, err)
		}
		total += bytes.Count(data, []byte("\n"))
		if len(data) > 0 && data[len(data)-1] != '\n' {
			total++
		}
	}
	return total, nil
}
