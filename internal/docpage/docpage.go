// Package docpage reads the pieces of a rustdoc page the relay cares
// about: the toolchain version shown in the sidebar and the reference to
// the search-index payload. Every read returns an explicit error instead
// of assuming the page shape holds.
package docpage

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// versionSelector walks sidebar → version container → paragraph, the
// structural location rustdoc keeps the toolchain version in.
const versionSelector = "nav.sidebar .version p"

var (
	// ErrNoVersionNode reports a page without the sidebar version paragraph.
	ErrNoVersionNode = errors.New("docpage: sidebar version paragraph not found")
	// ErrNoSearchIndexRef reports a page that loads no search-index payload.
	ErrNoSearchIndexRef = errors.New("docpage: search-index reference not found")
)

// Page is a parsed rustdoc HTML page.
type Page struct {
	doc *goquery.Document
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Page{doc: doc}, nil
}

// NightlyVersion returns the text content of the sidebar version
// paragraph. The text is passed through untrimmed; the extension shows
// it verbatim.
func (p *Page) NightlyVersion() (string, error) {
	sel := p.doc.Find(versionSelector).First()
	if sel.Length() == 0 {
		return "", ErrNoVersionNode
	}
	return sel.Text(), nil
}

// SearchIndexRef returns the src of the search-index payload the page
// loads. Newer rustdoc records it on the rustdoc-vars node; older pages
// load it with a plain script tag.
func (p *Page) SearchIndexRef() (string, error) {
	if ref, ok := p.doc.Find("div#rustdoc-vars").Attr("data-search-index-js"); ok && ref != "" {
		return ref, nil
	}

	var ref string
	p.doc.Find("script[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if strings.Contains(src, "search-index") {
			ref = src
			return false
		}
		return true
	})
	if ref == "" {
		return "", ErrNoSearchIndexRef
	}
	return ref, nil
}
