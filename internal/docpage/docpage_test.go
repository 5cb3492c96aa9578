package docpage

import (
	"errors"
	"strings"
	"testing"
)

const nightlyPage = `<!DOCTYPE html>
<html><head><title>std - Rust</title>
<script defer src="../search-index1.80.0.js"></script>
</head>
<body>
<nav class="sidebar">
	<a class="logo-container" href="../std/index.html"></a>
	<h2 class="location">Crate std</h2>
	<div class="version"><p>Version 1.80.0-nightly (abcdef123 2024-05-01)</p></div>
</nav>
<section id="main-content"></section>
</body></html>`

func TestNightlyVersion(t *testing.T) {
	page, err := Parse(strings.NewReader(nightlyPage))
	if err != nil {
		t.Fatal(err)
	}

	got, err := page.NightlyVersion()
	if err != nil {
		t.Fatalf("NightlyVersion failed: %v", err)
	}
	if got != "Version 1.80.0-nightly (abcdef123 2024-05-01)" {
		t.Errorf("unexpected version: %q", got)
	}
}

func TestNightlyVersionUntrimmed(t *testing.T) {
	html := `<nav class="sidebar"><div class="version"><p> 1.80.0-nightly </p></div></nav>`
	page, err := Parse(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	got, err := page.NightlyVersion()
	if err != nil {
		t.Fatal(err)
	}
	// Whitespace is the page's business; it must survive extraction.
	if got != " 1.80.0-nightly " {
		t.Errorf("version text was altered: %q", got)
	}
}

func TestNightlyVersionMissingNode(t *testing.T) {
	page, err := Parse(strings.NewReader(`<nav class="sidebar"><h2>Crate std</h2></nav>`))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := page.NightlyVersion(); !errors.Is(err, ErrNoVersionNode) {
		t.Fatalf("expected ErrNoVersionNode, got %v", err)
	}
}

func TestSearchIndexRefFromScriptTag(t *testing.T) {
	page, err := Parse(strings.NewReader(nightlyPage))
	if err != nil {
		t.Fatal(err)
	}

	got, err := page.SearchIndexRef()
	if err != nil {
		t.Fatalf("SearchIndexRef failed: %v", err)
	}
	if got != "../search-index1.80.0.js" {
		t.Errorf("unexpected ref: %q", got)
	}
}

func TestSearchIndexRefFromRustdocVars(t *testing.T) {
	html := `<div id="rustdoc-vars" data-search-index-js="../../search-index1.81.0.js"></div>
<script defer src="../search-index1.80.0.js"></script>`
	page, err := Parse(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	got, err := page.SearchIndexRef()
	if err != nil {
		t.Fatal(err)
	}
	// rustdoc-vars wins over the script tag when both are present.
	if got != "../../search-index1.81.0.js" {
		t.Errorf("unexpected ref: %q", got)
	}
}

func TestSearchIndexRefMissing(t *testing.T) {
	page, err := Parse(strings.NewReader(`<script src="../main.js"></script>`))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := page.SearchIndexRef(); !errors.Is(err, ErrNoSearchIndexRef) {
		t.Fatalf("expected ErrNoSearchIndexRef, got %v", err)
	}
}
