// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package volume

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{"001_bstod tshogs.txt", 1, true},
		{"042-tagged.txt", 42, true},
		{"212.txt", 212, true},
		{"1234.txt", 123, true},
		{"12_short.txt", 0, false},
		{"readme.md", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "001_a.txt")
	writeFile(t, dir, "003_c.txt")
	writeFile(t, dir, "003_c-old.txt")
	writeFile(t, dir, ".002_hidden.txt")
	writeFile(t, dir, "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "004_dir"), 0o755))

	idx, err := Scan(dir)
	require.NoError(t, err)

	assert.Equal(t, map[int]string{1: "001_a.txt", 3: "003_c-old.txt"}, idx.Files)
	assert.Equal(t, map[int][]string{3: {"003_c.txt"}}, idx.Duplicates)
}

func TestScan_MissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading source directory")
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "001_a.txt")
	writeFile(t, dir, "003_c.txt")
	writeFile(t, dir, "213_out_of_range.txt")

	idx, err := Scan(dir)
	require.NoError(t, err)

	found, missing := idx.Resolve(1, 4)
	require.Len(t, found, 2)
	assert.Equal(t, 1, found[0].Number)
	assert.Equal(t, filepath.Join(dir, "001_a.txt"), found[0].SourcePath)
	assert.Equal(t, 3, found[1].Number)
	assert.Equal(t, 319, found[1].Ignum())
	assert.Equal(t, []int{2, 4}, missing)
}

func TestIndex_CountLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_a.txt"), []byte("meta\n[1a.1]T\n[1a.2]x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002_b.txt"), []byte("meta\n[1a.1]T"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "003_c.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("a\nb\nc\n"), 0o644))

	idx, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, idx.Files, 3)

	lines, err := idx.CountLines()
	require.NoError(t, err)
	assert.Equal(t, 5, lines)
}
