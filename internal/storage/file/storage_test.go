package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestPrepare_CreatesParents(t *testing.T) {
	root := t.TempDir()
	s := NewStorage(root)

	require.NoError(t, s.Prepare(context.Background(), filepath.Join("a", "b", "c")))

	info, err := os.Stat(filepath.Join(root, "a", "b", "c"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent.
	assert.NoError(t, s.Prepare(context.Background(), filepath.Join("a", "b", "c")))
}

func TestSave_WritesAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	s := NewStorage("")

	path, err := s.Save(context.Background(), dir, "out.png", strings.NewReader("first"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.png"), path)

	_, err = s.Save(context.Background(), dir, "out.png", strings.NewReader("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestSave_FailedWriteLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	s := NewStorage("")

	_, err := s.Save(context.Background(), dir, "out.png", failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSave_MissingDirectory(t *testing.T) {
	s := NewStorage("")

	_, err := s.Save(context.Background(), filepath.Join(t.TempDir(), "nope"), "out.png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestSave_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStorage("").Save(ctx, t.TempDir(), "out.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
