package assembler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLAssembler extracts page markup, inline scripts and styles, link
// targets and storage entries from an HTML document.
type HTMLAssembler struct {
	Limits Limits
}

var linkSelectors = []struct {
	selector, attr string
}{
	{"a[href]", "href"},
	{"link[href]", "href"},
	{"iframe[src]", "src"},
	{"form[action]", "action"},
	{"img[src]", "src"},
}

func (a HTMLAssembler) Assemble(doc Document) Bundle {
	c := collector{limits: a.Limits.withDefaults()}
	bundle := Bundle{URL: doc.URL}

	page, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Body))
	if err != nil {
		c.add(KindRaw, doc.URL, doc.Body)
		c.addStorage("local", doc.LocalStorage)
		c.addStorage("session", doc.SessionStorage)
		bundle.Sources = c.sources
		return bundle
	}

	c.add(KindPage, doc.URL, doc.Body)

	seenScripts := make(map[string]struct{})
	page.Find("script").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			abs := Resolve(doc.URL, src)
			if abs == "" {
				return
			}
			if _, dup := seenScripts[abs]; !dup {
				seenScripts[abs] = struct{}{}
				bundle.Scripts = append(bundle.Scripts, abs)
				c.add(KindExternalScript, abs, abs)
			}
			return
		}
		c.add(KindInlineScript, doc.URL, s.Text())
	})

	page.Find("style").Each(func(_ int, s *goquery.Selection) {
		c.add(KindInlineStyle, doc.URL, s.Text())
	})
	page.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		c.add(KindInlineStyle, doc.URL, style)
	})

	seenLinks := make(map[string]struct{})
	for _, ls := range linkSelectors {
		page.Find(ls.selector).Each(func(_ int, s *goquery.Selection) {
			ref, _ := s.Attr(ls.attr)
			abs := Resolve(doc.URL, ref)
			if abs == "" {
				return
			}
			if _, dup := seenLinks[abs]; dup {
				return
			}
			seenLinks[abs] = struct{}{}
			bundle.Links = append(bundle.Links, abs)
			c.add(KindLink, abs, abs)
		})
	}

	c.addStorage("local", doc.LocalStorage)
	c.addStorage("session", doc.SessionStorage)
	bundle.Sources = c.sources
	return bundle
}
