package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslations(t *testing.T) {
	t.Run("Should look keys up exactly then case-folded", func(t *testing.T) {
		tr := Translations{"hello": {"fr": "bonjour"}}
		assert.Equal(t, map[string]string{"fr": "bonjour"}, tr.Lookup("hello"))
		assert.Equal(t, map[string]string{"fr": "bonjour"}, tr.Lookup("Hello"))
		assert.Nil(t, tr.Lookup("missing"))
	})

	t.Run("Should list every language in use", func(t *testing.T) {
		tr := Translations{
			"a": {"fr": "x", "de": "y"},
			"b": {"fr": "z", "nl": "w"},
		}
		assert.Equal(t, map[string]bool{"fr": true, "de": true, "nl": true}, tr.Languages())
	})
}

func TestMerge(t *testing.T) {
	t.Run("Should keep the first-seen translation on conflict", func(t *testing.T) {
		a := New()
		a.New.Ensure("hello")["fr"] = "bonjour"
		b := New()
		b.New.Ensure("hello")["fr"] = "salut"
		b.New.Ensure("hello")["de"] = "hallo"
		b.New.Ensure("bye")["fr"] = "au revoir"

		a.Merge(b)
		assert.Equal(t, "bonjour", a.New["hello"]["fr"])
		assert.Equal(t, "hallo", a.New["hello"]["de"])
		assert.Equal(t, "au revoir", a.New["bye"]["fr"])
	})

	t.Run("Should tolerate nil and uninitialized mappings", func(t *testing.T) {
		var a Mapping
		a.Merge(nil)
		b := New()
		b.New.Ensure("x")["fr"] = "y"
		a.Merge(b)
		assert.Equal(t, "y", a.New["x"]["fr"])
	})
}

func TestLoadSave(t *testing.T) {
	t.Run("Should round-trip through a JSON file", func(t *testing.T) {
		m := New()
		m.New.Ensure("hello")["fr"] = "bonjour"
		m.Title.Ensure("population")["fr"] = "Population"

		path := filepath.Join(t.TempDir(), "mapping.json")
		require.NoError(t, m.Save(path))

		loaded := Load(path)
		assert.Equal(t, m.New, loaded.New)
		assert.Equal(t, m.Title, loaded.Title)
	})

	t.Run("Should return an empty mapping for a missing file", func(t *testing.T) {
		m := Load(filepath.Join(t.TempDir(), "nope.json"))
		require.NotNil(t, m)
		assert.True(t, m.Empty())
	})

	t.Run("Should return an empty mapping for malformed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
		m := Load(path)
		require.NotNil(t, m)
		assert.True(t, m.Empty())
	})
}

func TestLoadAll(t *testing.T) {
	t.Run("Should merge sources with earlier files winning", func(t *testing.T) {
		dir := t.TempDir()
		first := New()
		first.New.Ensure("hello")["fr"] = "bonjour"
		second := New()
		second.New.Ensure("hello")["fr"] = "salut"
		second.New.Ensure("hello")["de"] = "hallo"

		p1 := filepath.Join(dir, "a.json")
		p2 := filepath.Join(dir, "b.json")
		require.NoError(t, first.Save(p1))
		require.NoError(t, second.Save(p2))

		m := LoadAll([]string{p1, p2})
		assert.Equal(t, "bonjour", m.New["hello"]["fr"])
		assert.Equal(t, "hallo", m.New["hello"]["de"])
	})
}
