package glossary

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

func mustDoc(t *testing.T, fragment string) *goquery.Document {
	t.Helper()
	doc, err := parseFragment(fragment)
	if err != nil {
		t.Fatalf("parseFragment: %v", err)
	}
	return doc
}

func mustFormat(t *testing.T, in string, media []domain.MediaItem) string {
	t.Helper()
	out, err := Format(in, media)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return out
}

func TestFormat_Images(t *testing.T) {
	t.Parallel()

	media := []domain.MediaItem{
		{Filename: "pic.png", Content: "UE5H"},
		{Filename: "img/diagram.svg", AnkiFilename: "yomitan_diagram.svg", Content: "PHN2Zz4="},
		{Filename: "raw.bmp", Content: "Qk0="},
	}

	tests := []struct {
		name        string
		src         string
		wantKept    bool
		wantDataURI string
	}{
		{"filename match", "pic.png", true, "data:image/png;base64,UE5H"},
		{"export filename match", "yomitan_diagram.svg", true, "data:image/svg+xml;base64,PHN2Zz4="},
		{"unknown extension defaults to png", "raw.bmp", true, "data:image/png;base64,Qk0="},
		{"no media", "missing.png", false, ""},
		{"empty src", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := mustFormat(t, `<div><img src="`+tt.src+`"></div>`, media)
			img := mustDoc(t, out).Find("img")

			if !tt.wantKept {
				if img.Length() != 0 {
					t.Errorf("image should be removed, got %s", out)
				}
				return
			}
			if img.Length() != 1 {
				t.Fatalf("image should be kept, got %s", out)
			}
			if got := img.AttrOr("src", ""); got != tt.wantDataURI {
				t.Errorf("src = %q, want %q", got, tt.wantDataURI)
			}
			if got := img.AttrOr(originalSrcAttr, ""); got != tt.src {
				t.Errorf("%s = %q, want %q", originalSrcAttr, got, tt.src)
			}
		})
	}
}

func TestFormat_DisablesLinks(t *testing.T) {
	t.Parallel()

	out := mustFormat(t, `<a href="?query=食べる">食べる</a><span data-link="x" style="color: red">x</span>`, nil)
	doc := mustDoc(t, out)

	a := doc.Find("a")
	if _, ok := a.Attr("href"); ok {
		t.Errorf("href should be removed: %s", out)
	}
	if got := a.AttrOr("data-href", ""); got != "?query=食べる" {
		t.Errorf("data-href = %q, want %q", got, "?query=食べる")
	}
	if got := a.AttrOr("style", ""); got != "pointer-events: none; cursor: default;" {
		t.Errorf("a style = %q", got)
	}

	span := doc.Find("[data-link]")
	if got := span.AttrOr("style", ""); got != "color: red; pointer-events: none; cursor: default;" {
		t.Errorf("span style = %q", got)
	}
}

func TestFormat_JitendexNumbering(t *testing.T) {
	t.Parallel()

	in := `<div data-dictionary="Jitendex.org [2024-05-01]">` +
		`<span>(Jitendex.org [2024-05-01])</span>` +
		`<ul data-sc-content="glossary"><li>① to eat</li><li>②  to live on</li></ul>` +
		`<div data-sc-content="glossary">③ plain <span data-details="x">④ kept</span></div>` +
		`</div>` +
		`<div data-dictionary="JMdict"><span>JMdict</span><ul data-sc-content="glossary"><li>① untouched</li></ul></div>`

	doc := mustDoc(t, mustFormat(t, in, nil))

	jitendex := doc.Find(`[data-dictionary*="Jitendex"]`)
	var items []string
	jitendex.Find("li").Each(func(_ int, li *goquery.Selection) {
		items = append(items, li.Text())
		if got := li.AttrOr("style", ""); got != "list-style: none;" {
			t.Errorf("li style = %q, want %q", got, "list-style: none;")
		}
	})
	if strings.Join(items, "|") != "to eat|to live on" {
		t.Errorf("jitendex items = %q", items)
	}

	plain := jitendex.Find(`div[data-sc-content="glossary"]`).Text()
	if plain != "plain ④ kept" {
		t.Errorf("jitendex text glossary = %q, want %q", plain, "plain ④ kept")
	}

	if got := doc.Find(`[data-dictionary="JMdict"] li`).Text(); got != "① untouched" {
		t.Errorf("other dictionary li = %q, want untouched", got)
	}
	if _, ok := doc.Find(`[data-dictionary="JMdict"] li`).Attr("style"); ok {
		t.Error("other dictionary li should keep its bullets")
	}
}

func TestFormat_TitleParentheses(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, mustFormat(t, `<div data-dictionary="JMdict"><span> (JMdict) </span><ol><li>(to) eat</li></ol></div>`, nil))

	if got := doc.Find("[data-dictionary] > span").Text(); got != "JMdict" {
		t.Errorf("title = %q, want %q", got, "JMdict")
	}
	if got := doc.Find("li").Text(); got != "(to) eat" {
		t.Errorf("body text = %q, want parentheses kept", got)
	}
}

func TestFormat_Idempotent(t *testing.T) {
	t.Parallel()

	media := []domain.MediaItem{{Filename: "pic.png", Content: "UE5H"}}
	in := `<style>.x { color: red; }</style>` +
		`<div data-dictionary="Jitendex"><span>(Jitendex)</span>` +
		`<ul data-sc-content="glossary"><li>① <a href="/x">eat</a> <img src="pic.png"> <img src="gone.png"></li></ul></div>`

	once := mustFormat(t, in, media)
	twice := mustFormat(t, once, media)

	if once != twice {
		t.Errorf("Format is not idempotent:\nonce:  %s\ntwice: %s", once, twice)
	}
	if !strings.HasPrefix(once, "<style>") {
		t.Errorf("leading style element should stay in place: %s", once)
	}
}

func TestRevertImages_RoundTrip(t *testing.T) {
	t.Parallel()

	media := []domain.MediaItem{{Filename: "img/外字 01.png", Content: "UE5H"}}
	src := "img/外字 01.png"

	formatted := mustFormat(t, `<p><img src="`+src+`" alt="g"></p>`, media)
	if strings.Contains(mustDoc(t, formatted).Find("img").AttrOr("src", ""), src) {
		t.Fatalf("image was not inlined: %s", formatted)
	}

	reverted, err := RevertImages(formatted)
	if err != nil {
		t.Fatalf("RevertImages: %v", err)
	}
	img := mustDoc(t, reverted).Find("img")
	if got := img.AttrOr("src", ""); got != src {
		t.Errorf("reverted src = %q, want %q", got, src)
	}
	if _, ok := img.Attr(originalSrcAttr); ok {
		t.Errorf("%s should be removed after revert", originalSrcAttr)
	}
	if got := img.AttrOr("alt", ""); got != "g" {
		t.Errorf("alt = %q, other attributes must survive", got)
	}
}
