// Package assembler gathers the text an extraction pass runs over.
package assembler

import (
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"
)

type SourceKind string

const (
	KindPage           SourceKind = "page"
	KindInlineScript   SourceKind = "inline-script"
	KindExternalScript SourceKind = "external-script"
	KindInlineStyle    SourceKind = "inline-style"
	KindLink           SourceKind = "link"
	KindStorage        SourceKind = "storage"
	KindRaw            SourceKind = "raw"
)

const (
	DefaultPerSourceBytes = 200 * 1024
	DefaultTotalBytes     = 1024 * 1024
)

// Document is one fetched resource plus any client-side storage captured
// alongside it.
type Document struct {
	URL            string
	ContentType    string
	Body           string
	LocalStorage   map[string]string
	SessionStorage map[string]string
}

// Source is one capped piece of scannable text.
type Source struct {
	Kind    SourceKind
	Ref     string
	Content string
}

// Bundle is the assembled content of a Document.
type Bundle struct {
	URL     string
	Sources []Source
	// Scripts and Links are absolute references discovered while assembling.
	Scripts []string
	Links   []string
}

// Text joins every source into the blob handed to the extractor.
func (b Bundle) Text() string {
	parts := make([]string, 0, len(b.Sources))
	for _, s := range b.Sources {
		parts = append(parts, s.Content)
	}
	return strings.Join(parts, "\n")
}

// Assembler turns a Document into scannable content.
type Assembler interface {
	Assemble(doc Document) Bundle
}

type Limits struct {
	PerSourceBytes int
	TotalBytes     int
}

func (l Limits) withDefaults() Limits {
	if l.PerSourceBytes <= 0 {
		l.PerSourceBytes = DefaultPerSourceBytes
	}
	if l.TotalBytes <= 0 {
		l.TotalBytes = DefaultTotalBytes
	}
	return l
}

// collector enforces the per-source and total caps.
type collector struct {
	limits  Limits
	used    int
	sources []Source
}

func (c *collector) add(kind SourceKind, ref, content string) {
	content = strings.TrimSpace(content)
	if content == "" || c.used >= c.limits.TotalBytes {
		return
	}
	content = capBytes(content, c.limits.PerSourceBytes)
	content = capBytes(content, c.limits.TotalBytes-c.used)
	c.used += len(content)
	c.sources = append(c.sources, Source{Kind: kind, Ref: ref, Content: content})
}

func (c *collector) addStorage(area string, entries map[string]string) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.add(KindStorage, area+":"+k, k+"="+entries[k])
	}
}

func capBytes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// Resolve makes ref absolute against base. Unsupported schemes such as
// javascript: and data: yield "".
func Resolve(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if b, err := url.Parse(base); err == nil && base != "" {
		u = b.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

// RawAssembler passes non-HTML bodies (scripts, JSON, text) through as a
// single source.
type RawAssembler struct {
	Limits Limits
}

func (a RawAssembler) Assemble(doc Document) Bundle {
	c := collector{limits: a.Limits.withDefaults()}
	c.add(KindRaw, doc.URL, doc.Body)
	c.addStorage("local", doc.LocalStorage)
	c.addStorage("session", doc.SessionStorage)
	return Bundle{URL: doc.URL, Sources: c.sources}
}

// ForContentType picks the HTML assembler for markup and the raw one for
// everything else.
func ForContentType(contentType string, limits Limits) Assembler {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") || strings.Contains(ct, "xhtml") {
		return HTMLAssembler{Limits: limits}
	}
	return RawAssembler{Limits: limits}
}
