package glossary

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

const originalSrcAttr = "data-original-src"

var imageMIME = map[string]string{
	"png":  "image/png",
	"gif":  "image/gif",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
}

// Format repairs glossary markup for display: images are inlined from
// media or dropped, links are disabled, Jitendex sense numbering is
// stripped and dictionary titles lose their parentheses.
// Formatting already formatted markup leaves it unchanged.
func Format(glossaryHTML string, media []domain.MediaItem) (string, error) {
	doc, err := parseFragment(glossaryHTML)
	if err != nil {
		return "", err
	}

	inlineImages(doc, media)
	stripJitendexNumbering(doc)
	disableLinks(doc)
	cleanTitles(doc)

	return renderFragment(doc)
}

// RevertImages restores the original src of every inlined image so the
// markup can be exported with the dictionary's own file references.
func RevertImages(fragment string) (string, error) {
	doc, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}

	doc.Find("img[" + originalSrcAttr + "]").Each(func(_ int, img *goquery.Selection) {
		original, _ := img.Attr(originalSrcAttr)
		img.SetAttr("src", original)
		img.RemoveAttr(originalSrcAttr)
	})

	return renderFragment(doc)
}

func inlineImages(doc *goquery.Document, media []domain.MediaItem) {
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if _, ok := img.Attr(originalSrcAttr); ok {
			return
		}
		src := img.AttrOr("src", "")
		item, ok := findMedia(media, src)
		if !ok {
			img.Remove()
			return
		}
		img.SetAttr(originalSrcAttr, src)
		img.SetAttr("src", dataURI(item))
	})
}

func findMedia(media []domain.MediaItem, src string) (domain.MediaItem, bool) {
	if src == "" {
		return domain.MediaItem{}, false
	}
	for _, m := range media {
		if m.Content == "" {
			continue
		}
		if m.Filename == src || (m.AnkiFilename != "" && m.AnkiFilename == src) {
			return m, true
		}
	}
	return domain.MediaItem{}, false
}

func dataURI(m domain.MediaItem) string {
	name := m.Filename
	if name == "" {
		name = m.AnkiFilename
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	mime, ok := imageMIME[ext]
	if !ok {
		mime = imageMIME["png"]
	}
	return "data:" + mime + ";base64," + m.Content
}

func stripJitendexNumbering(doc *goquery.Document) {
	doc.Find(`[data-dictionary*="Jitendex"]`).Each(func(_ int, dict *goquery.Selection) {
		dict.Find(`[data-sc-content="glossary"]`).Each(func(_ int, g *goquery.Selection) {
			g.Contents().Each(func(_ int, c *goquery.Selection) {
				n := c.Get(0)
				switch n.Type {
				case html.TextNode:
					if strings.TrimSpace(n.Data) != "" {
						n.Data = stripCircledNumber(n.Data)
					}
				case html.ElementNode:
					if c.Is("span[data-details]") {
						return
					}
					if t := firstText(n); t != nil {
						t.Data = stripCircledNumber(t.Data)
					}
				}
			})
		})
		dict.Find("li").Each(func(_ int, li *goquery.Selection) {
			setStyle(li, "list-style", "none")
		})
	})
}

// stripCircledNumber removes a leading ① to ⑳ and the whitespace after it.
func stripCircledNumber(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r < '①' || r > '⑳' {
		return s
	}
	return strings.TrimLeftFunc(s[size:], unicode.IsSpace)
}

// firstText returns the first non-blank descendant text node of n.
func firstText(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			return c
		}
		if c.Type == html.ElementNode {
			if t := firstText(c); t != nil {
				return t
			}
		}
	}
	return nil
}

func disableLinks(doc *goquery.Document) {
	doc.Find("a, [data-link]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			if _, moved := a.Attr("data-href"); !moved {
				a.SetAttr("data-href", href)
			}
			a.RemoveAttr("href")
		}
		setStyle(a, "pointer-events", "none")
		setStyle(a, "cursor", "default")
	})
}

func cleanTitles(doc *goquery.Document) {
	parens := strings.NewReplacer("(", "", ")", "")
	doc.Find("[data-dictionary]").Each(func(_ int, dict *goquery.Selection) {
		title := dict.Children().First()
		if title.Length() == 0 {
			return
		}
		text := title.Text()
		cleaned := strings.TrimSpace(parens.Replace(text))
		if cleaned != text {
			title.SetText(cleaned)
		}
	})
}
