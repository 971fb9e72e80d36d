package glossary

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseFragment parses s as the children of a <div>. Unlike a full document
// parse this keeps leading <style> elements in place.
func parseFragment(s string) (*goquery.Document, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

	nodes, err := html.ParseFragment(strings.NewReader(s), container)
	if err != nil {
		return nil, fmt.Errorf("glossary: parse fragment: %w", err)
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	return goquery.NewDocumentFromNode(container), nil
}

// renderFragment serializes the children of the fragment container.
func renderFragment(doc *goquery.Document) (string, error) {
	out, err := doc.Selection.Html()
	if err != nil {
		return "", fmt.Errorf("glossary: render fragment: %w", err)
	}
	return out, nil
}

// setStyle sets one CSS declaration in the element's style attribute,
// replacing an existing declaration of the same property.
func setStyle(s *goquery.Selection, property, value string) {
	type decl struct{ prop, val string }

	var decls []decl
	found := false
	for _, part := range strings.Split(s.AttrOr("style", ""), ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if strings.EqualFold(k, property) {
			v = value
			found = true
		}
		decls = append(decls, decl{k, v})
	}
	if !found {
		decls = append(decls, decl{property, value})
	}

	var b strings.Builder
	for i, d := range decls {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.prop)
		b.WriteString(": ")
		b.WriteString(d.val)
		b.WriteByte(';')
	}
	s.SetAttr("style", b.String())
}
