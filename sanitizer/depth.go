package sanitizer

import (
	"strings"

	"golang.org/x/net/html"
)

// DefaultMaxDepth caps element nesting in sanitized output.
const DefaultMaxDepth = 256

var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {},
	"img": {}, "input": {}, "keygen": {}, "link": {}, "meta": {},
	"param": {}, "source": {}, "track": {}, "wbr": {},
}

// limitDepth drops start and end tags nested deeper than maxDepth and keeps the
// text between them. It runs in one tokenizer pass, so the tree parsed from
// its output is at most about maxDepth levels deep.
func limitDepth(fragment string, maxDepth int) string {
	z := html.NewTokenizer(strings.NewReader(fragment))

	var b strings.Builder
	b.Grow(len(fragment))

	// open holds every element still open in the stream, kept or not.
	// counts lets unmatched end tags skip the stack scan.
	var (
		open   []string
		kept   []bool
		counts = map[string]int{}
	)

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if _, void := voidElements[tag]; void {
				b.Write(z.Raw())
				continue
			}
			// the parser treats <div/> as an open <div>
			keep := len(open) < maxDepth
			open = append(open, tag)
			kept = append(kept, keep)
			counts[tag]++
			if keep {
				b.Write(z.Raw())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if counts[tag] == 0 {
				continue
			}
			i := len(open) - 1
			for open[i] != tag {
				i--
			}
			keep := kept[i]
			for _, closed := range open[i:] {
				counts[closed]--
			}
			open, kept = open[:i], kept[:i]
			if keep {
				b.Write(z.Raw())
			}

		default:
			b.Write(z.Raw())
		}
	}
}
