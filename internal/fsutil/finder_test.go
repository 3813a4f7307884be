package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtensions(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	for _, name := range []string{"a.las", "b.LAZ", "c.txt", "skip.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(sub, "d.las"), nil, 0o644))

	files, err := FindFilesByExtensions(dir, ".las", ".laz")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.ElementsMatch(t, []string{"a.las", "b.LAZ", "d.las"}, names)
}

func TestFindFilesByExtensions_PanicsWithoutExtensions(t *testing.T) {
	assert.Panics(t, func() { FindFilesByExtensions(t.TempDir()) })
}
