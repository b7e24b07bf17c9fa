package utils

import (
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExcerptLength fits the excerpt column including the ellipsis.
const ExcerptLength = 197

// MakeExcerpt generates a plain text excerpt from HTML content.
// Block elements become word breaks and the result is cut at a word
// boundary to at most limit runes plus "...".
func MakeExcerpt(fragment string, limit int) string {
	if fragment == "" || limit <= 0 {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return truncateWords(collapseSpace(b.String()), limit)
			}
			return ""
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Iframe || a == atom.Video || a == atom.Audio {
				skip++
			}
			if isBlock(a) {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if (a == atom.Iframe || a == atom.Video || a == atom.Audio) && skip > 0 {
				skip--
			}
			if isBlock(a) {
				b.WriteByte(' ')
			}
		}
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Br, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Li, atom.Ol, atom.Ul, atom.Blockquote, atom.Pre, atom.Tr, atom.Td, atom.Th,
		atom.Figure, atom.Figcaption, atom.Article, atom.Section, atom.Header, atom.Footer, atom.Hr:
		return true
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateWords(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	cut := limit
	for i := limit; i > limit/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace) + "..."
}
