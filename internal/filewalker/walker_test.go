package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk(t *testing.T) {
	t.Run("Should find svg files recursively, sorted", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
		for _, name := range []string{"b.svg", "a.SVG", "notes.txt", filepath.Join("sub", "c.svg")} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<svg/>"), 0644))
		}

		files, err := Walk(dir)
		require.NoError(t, err)
		require.Len(t, files, 3)
		assert.Equal(t, "a.SVG", filepath.Base(files[0]))
		assert.Equal(t, "b.svg", filepath.Base(files[1]))
		assert.Equal(t, "c.svg", filepath.Base(files[2]))
	})

	t.Run("Should fail when root is missing", func(t *testing.T) {
		_, err := Walk(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("Should fail when root is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "f.svg")
		require.NoError(t, os.WriteFile(path, []byte("<svg/>"), 0644))
		_, err := Walk(path)
		assert.Error(t, err)
	})
}
