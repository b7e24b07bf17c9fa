package sanitizer

import (
	"strings"

	"golang.org/x/net/html"
)

// InjectAttributes walks every tree rooted in nodes and forces each
// matching rule's attributes onto the element, replacing existing values.
// Rules apply in order, so a later rule wins for the same key. Running it
// twice gives the same tree as running it once.
func InjectAttributes(nodes []*html.Node, rules []InjectionRule) {
	if len(rules) == 0 {
		return
	}
	for _, n := range nodes {
		injectNode(n, rules)
	}
}

func injectNode(n *html.Node, rules []InjectionRule) {
	if n.Type == html.ElementNode {
		for _, rule := range rules {
			if n.Data != rule.Element {
				continue
			}
			for _, a := range rule.Attrs {
				setAttr(n, a.Key, a.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		injectNode(c, rules)
	}
}

// ApplyInjectionRules is InjectAttributes for an HTML fragment string.
func ApplyInjectionRules(fragment string, rules []InjectionRule) string {
	root, ok := parseBody(limitDepth(fragment, DefaultMaxDepth))
	if !ok {
		return ""
	}
	InjectAttributes(children(root), rules)
	out, ok := renderChildren(root)
	if !ok {
		return ""
	}
	return out
}

// setAttr overwrites key on n, dropping any duplicate occurrences.
func setAttr(n *html.Node, key, val string) {
	found := false
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			if found {
				continue
			}
			found = true
			a.Val = val
		}
		attrs = append(attrs, a)
	}
	if !found {
		attrs = append(attrs, html.Attribute{Key: key, Val: val})
	}
	n.Attr = attrs
}

func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func renderChildren(root *html.Node) (string, bool) {
	var b strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", false
		}
	}
	return b.String(), true
}
