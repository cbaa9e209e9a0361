package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svgtranslate/internal/mapping"
	"svgtranslate/internal/prepare"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func helloMapping() *mapping.Mapping {
	m := mapping.New()
	m.New.Ensure("hello")["fr"] = "Bonjour"
	return m
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Should save changed documents and count untouched ones", func(t *testing.T) {
		dir := t.TempDir()
		changed := writeFile(t, dir, "a.svg", `<svg><text>hello</text></svg>`)
		untouched := writeFile(t, dir, "b.svg", `<svg><text>unrelated</text></svg>`)

		result, err := Run(ctx, []string{changed, untouched}, Options{Mapping: helloMapping(), Workers: 2})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Saved)
		assert.Equal(t, 1, result.NoChanges)
		assert.Equal(t, 0, result.NotSaved)
		assert.Equal(t, 1, result.Totals.NewTranslations)

		data, err := os.ReadFile(changed)
		require.NoError(t, err)
		assert.Contains(t, string(data), `systemLanguage="fr"`)
		assert.Contains(t, string(data), "Bonjour")

		// Untouched documents keep their original bytes.
		data, err = os.ReadFile(untouched)
		require.NoError(t, err)
		assert.Equal(t, `<svg><text>unrelated</text></svg>`, string(data))
	})

	t.Run("Should record structural errors per file and keep going", func(t *testing.T) {
		dir := t.TempDir()
		bad := writeFile(t, dir, "bad.svg", `<svg><text><tspan><tspan>x</tspan></tspan></text></svg>`)
		good := writeFile(t, dir, "good.svg", `<svg><text>hello</text></svg>`)

		result, err := Run(ctx, []string{bad, good}, Options{Mapping: helloMapping()})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Saved)
		assert.Equal(t, 1, result.NotSaved)
		assert.Equal(t, 1, result.NestedErrors)
		assert.Equal(t, string(prepare.ErrNestedTspans), result.Errors[bad])
	})

	t.Run("Should bucket unreadable files as parse errors", func(t *testing.T) {
		result, err := Run(ctx, []string{filepath.Join(t.TempDir(), "missing.svg")}, Options{Mapping: helloMapping()})
		require.NoError(t, err)
		assert.Equal(t, 1, result.NotSaved)
		for _, code := range result.Errors {
			assert.Equal(t, ParseErrorCode, code)
		}
	})

	t.Run("Should write into the output directory when set", func(t *testing.T) {
		srcDir := t.TempDir()
		outDir := filepath.Join(t.TempDir(), "out")
		src := writeFile(t, srcDir, "a.svg", `<svg><text>hello</text></svg>`)

		result, err := Run(ctx, []string{src}, Options{Mapping: helloMapping(), OutputDir: outDir})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Saved)

		_, err = os.Stat(filepath.Join(outDir, "a.svg"))
		assert.NoError(t, err)

		// Source stays untouched.
		data, err := os.ReadFile(src)
		require.NoError(t, err)
		assert.Equal(t, `<svg><text>hello</text></svg>`, string(data))
	})

	t.Run("Should write to an explicit output file", func(t *testing.T) {
		dir := t.TempDir()
		src := writeFile(t, dir, "a.svg", `<svg><text>hello</text></svg>`)
		out := filepath.Join(dir, "result.svg")

		result, err := Run(ctx, []string{src}, Options{Mapping: helloMapping(), OutputFile: out})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Saved)
		_, err = os.Stat(out)
		assert.NoError(t, err)
	})

	t.Run("Should count undispatched files as cancelled, not unchanged", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		dir := t.TempDir()
		files := make([]string, 32)
		for i := range files {
			files[i] = writeFile(t, dir, fmt.Sprintf("f%02d.svg", i), `<svg><text>hello</text></svg>`)
		}

		result, err := Run(cancelled, files, Options{Mapping: helloMapping(), Workers: 1})
		require.NoError(t, err)
		assert.Positive(t, result.Cancelled)
		assert.Equal(t, len(files), result.Cancelled+result.Saved+result.NoChanges+result.NotSaved)
		assert.NotContains(t, result.Files, "")
		assert.NotContains(t, result.Errors, "")
	})

	t.Run("Should tolerate a nil mapping", func(t *testing.T) {
		dir := t.TempDir()
		src := writeFile(t, dir, "a.svg", `<svg><text>hello</text></svg>`)
		result, err := Run(ctx, []string{src}, Options{})
		require.NoError(t, err)
		assert.Equal(t, 1, result.NoChanges)
	})
}

func TestCopyTranslations(t *testing.T) {
	ctx := context.Background()

	t.Run("Should move translations from source to target", func(t *testing.T) {
		dir := t.TempDir()
		source := writeFile(t, dir, "source.svg", `<svg><switch>`+
			`<text systemLanguage="fr" id="t1-fr"><tspan id="s1-fr">Bonjour</tspan></text>`+
			`<text id="t1"><tspan id="s1">hello</tspan></text>`+
			`</switch></svg>`)
		target := writeFile(t, dir, "target.svg", `<svg><text>hello</text></svg>`)
		output := filepath.Join(dir, "out.svg")

		stats, m, err := CopyTranslations(ctx, source, target, output, nil, Options{})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.NewTranslations)
		assert.Equal(t, "Bonjour", m.New["hello"]["fr"])

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Bonjour")
	})

	t.Run("Should fail cleanly on an unreadable source", func(t *testing.T) {
		dir := t.TempDir()
		target := writeFile(t, dir, "target.svg", `<svg><text>hello</text></svg>`)
		_, _, err := CopyTranslations(ctx, filepath.Join(dir, "missing.svg"), target, "", nil, Options{})
		assert.Error(t, err)
	})
}
