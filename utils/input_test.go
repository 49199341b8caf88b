package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDomain(t *testing.T) {
	host, err := ExtractDomain("https://api.example.com:8443/v1")
	require.NoError(t, err)
	assert.Equal(t, "api.example.com", host)

	_, err = ExtractDomain("/relative/path")
	assert.Error(t, err)
}

func TestSanitizeURL(t *testing.T) {
	assert.Equal(t, "https://example.com/", SanitizeURL(" example.com "))
	assert.Equal(t, "http://example.com/a?b=1", SanitizeURL("http://example.com/a?b=1"))
	assert.True(t, IsValidURL(SanitizeURL("example.com")))
	assert.False(t, IsValidURL("ftp://example.com/"))
}

func TestReadLinesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte("# seeds\nhttps://a.example.com\n\n  b.example.com  \n"), 0644))

	lines, err := ReadLinesFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "b.example.com"}, lines)

	_, err = ReadLinesFromFile(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, IsConfigError(err))
}

func TestIsBinaryContent(t *testing.T) {
	assert.False(t, IsBinaryContent([]byte("const a = 1;\n")))
	assert.True(t, IsBinaryContent([]byte{0, 1, 2, 3, 'a'}))
	assert.False(t, IsBinaryContent(nil))
}
