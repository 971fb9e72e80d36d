package glossary

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

const dictionaryAttr = "data-dictionary"

// groupingAtRules hold nested rules that are filtered recursively.
var groupingAtRules = map[string]bool{
	"media":     true,
	"supports":  true,
	"layer":     true,
	"container": true,
	"document":  true,
}

type cssToken struct {
	tt   css.TokenType
	data string
}

// cssRule is a statement (prelude only) or a block rule.
type cssRule struct {
	prelude []cssToken
	body    []cssToken
	block   bool
}

// FilterStyles keeps the rules of a glossary style sheet that apply to dict:
// rules scoped to another dictionary are dropped, unscoped rules are kept.
// The result is a single line.
func FilterStyles(sheet, dict string) string {
	rules := parseRules(lexStyles(sheet))
	return domain.CollapseSpace(strings.Join(filterRules(rules, dict), "\n"))
}

// lexStyles tokenizes a style sheet, dropping comments.
func lexStyles(sheet string) []cssToken {
	l := css.NewLexer(parse.NewInput(strings.NewReader(sheet)))

	var tokens []cssToken
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return tokens
		case css.CommentToken:
			continue
		}
		tokens = append(tokens, cssToken{tt: tt, data: string(data)})
	}
}

func filterRules(rules []cssRule, dict string) []string {
	var out []string
	for _, r := range rules {
		if isAtRule(r) {
			out = append(out, filterAtRule(r, dict)...)
			continue
		}
		if !r.block {
			continue
		}

		prelude := cssText(r.prelude)
		if scope, ok := dictionaryScope(r.prelude); ok {
			if scope == dict {
				out = append(out, prelude+" { "+cssText(r.body)+" }")
			}
			continue
		}
		if !hasBlock(r.body) {
			out = append(out, prelude+" { "+cssText(r.body)+" }")
			continue
		}

		// Nested rules: keep own declarations, filter children.
		var own []string
		var nested []cssRule
		for _, inner := range parseRules(r.body) {
			if inner.block || isAtRule(inner) {
				nested = append(nested, inner)
			} else {
				own = append(own, cssText(inner.prelude)+";")
			}
		}
		innerText := strings.Join(filterRules(nested, dict), "\n")
		ownText := strings.Join(own, " ")
		if strings.TrimSpace(innerText) != "" || strings.TrimSpace(ownText) != "" {
			out = append(out, prelude+" {\n"+ownText+"\n"+innerText+"}")
		}
	}
	return out
}

func filterAtRule(r cssRule, dict string) []string {
	prelude := cssText(r.prelude)
	if !r.block {
		return []string{prelude + ";"}
	}
	if !groupingAtRules[atRuleName(r.prelude)] {
		return []string{prelude + " { " + cssText(r.body) + " }"}
	}
	inner := filterRules(parseRules(r.body), dict)
	if len(inner) == 0 {
		return nil
	}
	return []string{prelude + " { " + strings.Join(inner, "\n") + " }"}
}

// parseRules groups tokens into top-level statements and block rules.
// A block runs to its matching brace, or to the end when unterminated.
func parseRules(tokens []cssToken) []cssRule {
	var rules []cssRule

	start := 0
	for i := 0; i < len(tokens); i++ {
		switch tokens[i].tt {
		case css.SemicolonToken:
			if prelude := tokens[start:i]; !blank(prelude) {
				rules = append(rules, cssRule{prelude: prelude})
			}
			start = i + 1
		case css.LeftBraceToken:
			end := matchBrace(tokens, i)
			rules = append(rules, cssRule{
				prelude: tokens[start:i],
				body:    tokens[i+1 : end],
				block:   true,
			})
			i = end
			start = end + 1
		case css.RightBraceToken:
			// Stray closing brace.
			start = i + 1
		}
	}

	// Trailing declaration without a semicolon.
	if start < len(tokens) && !blank(tokens[start:]) {
		rules = append(rules, cssRule{prelude: tokens[start:]})
	}
	return rules
}

func matchBrace(tokens []cssToken, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch tokens[i].tt {
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(tokens)
}

// dictionaryScope finds the first [data-dictionary=value] selector in a
// prelude and returns its unquoted value.
func dictionaryScope(prelude []cssToken) (string, bool) {
	for i, t := range prelude {
		if t.tt != css.LeftBracketToken {
			continue
		}
		rest := significant(prelude[i+1:])
		if len(rest) < 4 {
			continue
		}
		name, eq, value, closing := rest[0], rest[1], rest[2], rest[3]
		if name.tt != css.IdentToken || !strings.EqualFold(name.data, dictionaryAttr) {
			continue
		}
		if eq.tt != css.DelimToken || eq.data != "=" || closing.tt != css.RightBracketToken {
			continue
		}
		switch value.tt {
		case css.StringToken:
			return unquote(value.data), true
		case css.IdentToken:
			return value.data, true
		}
	}
	return "", false
}

// significant returns the tokens up to the next closing bracket with
// whitespace removed.
func significant(tokens []cssToken) []cssToken {
	var out []cssToken
	for _, t := range tokens {
		if t.tt == css.WhitespaceToken {
			continue
		}
		out = append(out, t)
		if t.tt == css.RightBracketToken {
			break
		}
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return strings.Trim(s, `"'`)
}

func isAtRule(r cssRule) bool {
	for _, t := range r.prelude {
		if t.tt != css.WhitespaceToken {
			return t.tt == css.AtKeywordToken
		}
	}
	return false
}

func atRuleName(prelude []cssToken) string {
	for _, t := range prelude {
		if t.tt == css.AtKeywordToken {
			return strings.ToLower(strings.TrimPrefix(t.data, "@"))
		}
	}
	return ""
}

func hasBlock(tokens []cssToken) bool {
	for _, t := range tokens {
		if t.tt == css.LeftBraceToken {
			return true
		}
	}
	return false
}

func blank(tokens []cssToken) bool {
	for _, t := range tokens {
		if t.tt != css.WhitespaceToken {
			return false
		}
	}
	return true
}

func cssText(tokens []cssToken) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.data)
	}
	return strings.TrimSpace(b.String())
}
