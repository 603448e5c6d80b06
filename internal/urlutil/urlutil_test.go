package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases scheme and host", "HTTP://Example.COM/page", "http://example.com/page"},
		{"strips default http port", "http://example.com:80/page", "http://example.com/page"},
		{"strips default https port", "https://example.com:443/", "https://example.com/"},
		{"keeps non-default port", "http://example.com:8080/page", "http://example.com:8080/page"},
		{"strips fragment", "https://example.com/page#section", "https://example.com/page"},
		{"keeps query", "https://example.com/page?a=1&b=2", "https://example.com/page?a=1&b=2"},
		{"trims trailing slash", "https://example.com/page/", "https://example.com/page"},
		{"keeps root slash", "https://example.com/", "https://example.com/"},
		{"adds root path", "https://example.com", "https://example.com/"},
		{"collapses duplicate slashes", "https://example.com/a//b", "https://example.com/a/b"},
		{"resolves dot segments", "https://example.com/a/../b/./c", "https://example.com/b/c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalizeRejectsRelative(t *testing.T) {
	for _, input := range []string{"", "example.com/page", "/just/a/path", "not a url at all ::"} {
		_, err := Canonicalize(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []string{
		"HTTP://Example.COM:80/a/../b//c/?q=1#frag",
		"https://example.com/page/",
		"https://example.com",
	}
	for _, input := range inputs {
		once, err := Canonicalize(input)
		require.NoError(t, err)
		twice, err := Canonicalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestResolveURL(t *testing.T) {
	got, err := ResolveURL("https://example.com/dir/page", "../other")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/other", got)

	got, err = ResolveURL("https://example.com/dir/", "https://other.com/x")
	require.NoError(t, err)
	assert.Equal(t, "https://other.com/x", got)
}

func TestIsSameHost(t *testing.T) {
	assert.True(t, IsSameHost("https://example.com/a", "http://EXAMPLE.com/b"))
	assert.False(t, IsSameHost("https://example.com/a", "https://sub.example.com/a"))
}

func TestPathDepth(t *testing.T) {
	assert.Equal(t, 0, PathDepth("https://example.com/"))
	assert.Equal(t, 1, PathDepth("https://example.com/a"))
	assert.Equal(t, 3, PathDepth("https://example.com/a/b/c"))
	assert.Equal(t, 3, PathDepth("https://example.com/a/b/c/"))
}

func TestIsHTTP(t *testing.T) {
	assert.True(t, IsHTTP("http://example.com"))
	assert.True(t, IsHTTP("https://example.com"))
	assert.False(t, IsHTTP("ftp://example.com"))
	assert.False(t, IsHTTP("mailto:x@example.com"))
}
