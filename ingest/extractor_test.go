package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/core"
)

func TestPlainTextExtractor(t *testing.T) {
	extractor := &PlainTextExtractor{}
	ctx := context.Background()
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		return path
	}

	t.Run("reads file content verbatim", func(t *testing.T) {
		path := write("note.txt", []byte("a plain note about nothing much\nwith a second line"))
		text, err := extractor.Extract(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "a plain note about nothing much\nwith a second line", text)
	})

	t.Run("keeps unicode intact", func(t *testing.T) {
		path := write("unicode.txt", []byte("héllo wörld with ünïcode and 日本語"))
		text, err := extractor.Extract(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "héllo wörld with ünïcode and 日本語", text)
	})

	t.Run("rejects empty file", func(t *testing.T) {
		path := write("empty.txt", nil)
		_, err := extractor.Extract(ctx, path)
		assert.ErrorIs(t, err, core.ErrEmptyText)
	})

	t.Run("rejects whitespace-only file", func(t *testing.T) {
		path := write("blank.txt", []byte("   \n\t  \n"))
		_, err := extractor.Extract(ctx, path)
		assert.ErrorIs(t, err, core.ErrEmptyText)
	})

	t.Run("rejects invalid utf-8", func(t *testing.T) {
		path := write("binary.txt", []byte{0xff, 0xfe, 0x41, 0x80, 0x42})
		_, err := extractor.Extract(ctx, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UTF-8")
	})

	t.Run("reports missing file", func(t *testing.T) {
		_, err := extractor.Extract(ctx, filepath.Join(dir, "does-not-exist.txt"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
