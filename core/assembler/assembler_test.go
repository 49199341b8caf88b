package assembler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!doctype html>
<html><head>
<link rel="stylesheet" href="/css/site.css">
<script src="/js/app.js"></script>
<script src="/js/app.js"></script>
<script>var token = "inline-secret";</script>
<style>.a { background: url(/img/bg.png) }</style>
</head>
<body style="color:red">
<a href="/about#team">About</a>
<a href="javascript:void(0)">noop</a>
<a href="https://other.example.org/x">ext</a>
<form action="/login"></form>
</body></html>`

func kinds(b Bundle) map[SourceKind]int {
	out := map[SourceKind]int{}
	for _, s := range b.Sources {
		out[s.Kind]++
	}
	return out
}

func TestHTMLAssembler(t *testing.T) {
	b := HTMLAssembler{}.Assemble(Document{
		URL:          "https://example.com/app/index.html",
		Body:         page,
		LocalStorage: map[string]string{"authToken": "abc", "theme": "dark"},
	})

	assert.Equal(t, []string{"https://example.com/js/app.js"}, b.Scripts)
	assert.Equal(t, []string{
		"https://example.com/about",
		"https://other.example.org/x",
		"https://example.com/css/site.css",
		"https://example.com/login",
	}, b.Links)

	k := kinds(b)
	assert.Equal(t, 1, k[KindPage])
	assert.Equal(t, 1, k[KindInlineScript])
	assert.Equal(t, 1, k[KindExternalScript])
	assert.Equal(t, 2, k[KindInlineStyle])
	assert.Equal(t, 2, k[KindStorage])

	text := b.Text()
	assert.Contains(t, text, `var token = "inline-secret";`)
	assert.Contains(t, text, "authToken=abc")
}

func TestPerSourceCap(t *testing.T) {
	body := strings.Repeat("x", 100)
	b := RawAssembler{Limits: Limits{PerSourceBytes: 10}}.Assemble(Document{URL: "u", Body: body})

	require.Len(t, b.Sources, 1)
	assert.Len(t, b.Sources[0].Content, 10)
}

func TestTotalCap(t *testing.T) {
	b := RawAssembler{Limits: Limits{PerSourceBytes: 50, TotalBytes: 60}}.Assemble(Document{
		URL:          "u",
		Body:         strings.Repeat("x", 50),
		LocalStorage: map[string]string{"a": strings.Repeat("y", 40), "b": "z"},
	})

	require.Len(t, b.Sources, 2)
	assert.Len(t, b.Sources[1].Content, 10)
}

func TestCapBytesKeepsRunes(t *testing.T) {
	assert.Equal(t, "日", capBytes("日本", 4))
	assert.Equal(t, "", capBytes("日本", 0))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "https://example.com/a/b", Resolve("https://example.com/a/", "b"))
	assert.Equal(t, "https://cdn.example.com/x.js", Resolve("https://example.com", "//cdn.example.com/x.js"))
	assert.Equal(t, "", Resolve("https://example.com", "mailto:a@example.com"))
	assert.Equal(t, "", Resolve("https://example.com", "#top"))
	assert.Equal(t, "", Resolve("https://example.com", "  "))
}

func TestForContentType(t *testing.T) {
	assert.IsType(t, HTMLAssembler{}, ForContentType("text/html; charset=utf-8", Limits{}))
	assert.IsType(t, RawAssembler{}, ForContentType("application/javascript", Limits{}))
}
