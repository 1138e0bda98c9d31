package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aliskhannn/image-batch/internal/model"
)

// ListDir returns the names of all entries of dir, sorted lexicographically.
// Entries of every kind are returned; filtering happens per pair.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	return names, nil
}

// PairByPosition pairs the i-th base name with the i-th overlay name.
// Extra names in the longer list are dropped.
func PairByPosition(bases, overlays []string) []model.Pair {
	n := min(len(bases), len(overlays))

	pairs := make([]model.Pair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, model.Pair{Base: bases[i], Overlay: overlays[i]})
	}

	return pairs
}

// PairByStem pairs each base name with the overlay that has the same name
// without extension. Bases without a match are dropped; when several overlays
// share a stem, the first in sorted order wins. Output keeps base order.
func PairByStem(bases, overlays []string) []model.Pair {
	byStem := make(map[string]string, len(overlays))
	for _, o := range overlays {
		s := stem(o)
		if _, ok := byStem[s]; !ok {
			byStem[s] = o
		}
	}

	pairs := make([]model.Pair, 0, len(bases))
	for _, b := range bases {
		if o, ok := byStem[stem(b)]; ok {
			pairs = append(pairs, model.Pair{Base: b, Overlay: o})
		}
	}

	return pairs
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// isRegularFile reports whether path exists and is a regular file.
// Symlinks are followed.
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}
