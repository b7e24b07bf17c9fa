package sanitizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sanitizer applies one Policy. Build it once and share it.
type Sanitizer struct {
	policy *Policy
	engine *bluemonday.Policy
}

// Result carries sanitizer output plus facts about the input.
type Result struct {
	Content    SanitizedContent
	InputBytes int
	Truncated  bool
}

// New builds a Sanitizer for policy. A nil policy selects DefaultPolicy.
func New(policy *Policy) *Sanitizer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Sanitizer{
		policy: policy,
		engine: buildEngine(policy),
	}
}

var defaultSanitizer = sync.OnceValue(func() *Sanitizer {
	return New(DefaultPolicy())
})

// Default returns the process-wide Sanitizer for DefaultPolicy.
func Default() *Sanitizer {
	return defaultSanitizer()
}

// Sanitize runs raw through the default feed policy.
func Sanitize(raw string) SanitizedContent {
	return defaultSanitizer().Sanitize(raw)
}

func (s *Sanitizer) Policy() *Policy {
	return s.policy
}

// Sanitize decodes one level of entities in raw, then strips everything
// the policy does not allow and applies the injection rules.
func (s *Sanitizer) Sanitize(raw string) SanitizedContent {
	return s.SanitizeWithResult(raw).Content
}

func (s *Sanitizer) SanitizeWithResult(raw string) Result {
	capped, truncated := truncateUTF8(raw, s.policy.maxInputBytes)
	return Result{
		Content:    SanitizedContent{html: s.clean(DecodeEntities(capped))},
		InputBytes: len(raw),
		Truncated:  truncated,
	}
}

// SanitizeFragment sanitizes markup that is already decoded. It skips the
// entity pre-decoder but otherwise matches Sanitize.
func (s *Sanitizer) SanitizeFragment(decoded string) string {
	capped, _ := truncateUTF8(decoded, s.policy.maxInputBytes)
	return s.clean(capped)
}

func (s *Sanitizer) clean(decoded string) string {
	if strings.TrimSpace(decoded) == "" {
		return ""
	}

	filtered := s.engine.Sanitize(decoded)
	if filtered == "" {
		return ""
	}

	root, ok := parseBody(limitDepth(filtered, s.policy.maxDepth))
	if !ok {
		return ""
	}
	s.enforce(root, 1)
	InjectAttributes(children(root), s.policy.rules)

	out, ok := renderChildren(root)
	if !ok || strings.TrimSpace(out) == "" {
		return ""
	}
	return out
}

// enforce re-applies the allow-list and the depth cap to the parsed tree.
// Parsing can create implied elements, so the tree is checked once more
// before rendering.
func (s *Sanitizer) enforce(parent *html.Node, depth int) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling

		switch c.Type {
		case html.TextNode:
		case html.ElementNode:
			if c.Namespace != "" || !s.policy.AllowsTag(c.Data) || depth > s.policy.maxDepth {
				if first := unwrap(c); first != nil {
					next = first
				}
				break
			}
			c.Attr = s.filterAttrs(c.Data, c.Attr)
			if c.DataAtom == atom.Iframe {
				// iframes never render fallback content
				for gc := c.FirstChild; gc != nil; gc = c.FirstChild {
					c.RemoveChild(gc)
				}
			}
			s.enforce(c, depth+1)
		default:
			parent.RemoveChild(c)
		}

		c = next
	}
}

func (s *Sanitizer) filterAttrs(element string, attrs []html.Attribute) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if a.Namespace != "" || !s.policy.AllowsAttribute(a.Key) {
			continue
		}
		if isURLAttr(a.Key) && !s.policy.urlAllowed(element, a.Key, a.Val) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// unwrap replaces n with its children and returns the first child moved.
func unwrap(n *html.Node) *html.Node {
	parent := n.Parent
	first := n.FirstChild
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)
	return first
}

// parseBody parses fragment in a body context and hangs the result off a
// detached body element.
func parseBody(fragment string) (*html.Node, bool) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, false
	}
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		root.AppendChild(n)
	}
	return root, true
}
