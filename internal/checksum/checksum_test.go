package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	d1 := Bytes([]byte("hello world"))
	d2 := Bytes([]byte("hello world"))
	assert.Equal(t, d1, d2, "same bytes should produce same digest")
	assert.Len(t, d1, HexLength)
	assert.Regexp(t, "^[0-9a-f]+$", d1)

	d3 := Bytes([]byte("hello worlD"))
	assert.NotEqual(t, d1, d3, "different bytes should produce different digest")

	// Order-sensitive
	assert.NotEqual(t, Bytes([]byte("ab")), Bytes([]byte("ba")))
}

func TestText_MatchesBytes(t *testing.T) {
	assert.Equal(t, Bytes([]byte("println(42)")), Text("println(42)"))
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.kts")
	err := os.WriteFile(path, []byte("val x = 1"), 0o644)
	require.NoError(t, err)

	d, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, Text("val x = 1"), d, "file digest should route through the same byte core")

	_, err = File(filepath.Join(t.TempDir(), "missing.kts"))
	assert.Error(t, err)
}
