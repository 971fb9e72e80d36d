package glossary

import (
	"strings"
)

// StyleSheet returns the text of the first <style> element of a glossary.
func StyleSheet(glossaryHTML string) string {
	doc, err := parseFragment(glossaryHTML)
	if err != nil {
		return ""
	}
	return doc.Find("style").First().Text()
}

// ExportBlock builds the dictionary-choice payload for one dictionary
// source block: the block with its original image references, wrapped in
// a glossary list, followed by the style rules that apply to it.
func ExportBlock(blockHTML, css, dict string) (string, error) {
	block, err := RevertImages(blockHTML)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`<div class="yomitan-glossary" style="text-align: left;"><ol>`)
	b.WriteString(block)
	b.WriteString(`</ol></div>`)
	if css != "" {
		b.WriteString("<style>")
		b.WriteString(FilterStyles(css, dict))
		b.WriteString("</style>")
	}
	return b.String(), nil
}
