package sanitizer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// DefaultMaxInputBytes caps raw content before it is parsed.
const DefaultMaxInputBytes = 1 << 20

// ErrInvalidPolicy matches every *PolicyConfigurationError via errors.Is.
var ErrInvalidPolicy = errors.New("sanitizer: invalid policy")

// PolicyConfigurationError lists everything wrong with a PolicyConfig.
type PolicyConfigurationError struct {
	Problems []string
}

func (e *PolicyConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidPolicy, strings.Join(e.Problems, "; "))
}

func (e *PolicyConfigurationError) Is(target error) bool {
	return target == ErrInvalidPolicy
}

// Attribute is a single name/value pair forced onto an element.
type Attribute struct {
	Key string `json:"key"`
	Val string `json:"value"`
}

// InjectionRule forces Attrs onto every surviving Element, overwriting any
// value already present.
type InjectionRule struct {
	Element string      `json:"element"`
	Attrs   []Attribute `json:"attributes"`
}

// PolicyConfig is the mutable input to NewPolicy.
type PolicyConfig struct {
	AllowedTags       []string
	AllowedAttributes []string
	InjectionRules    []InjectionRule

	// AllowDataURIImages permits base64 data: URLs in img src. Off by default.
	AllowDataURIImages bool

	// MaxInputBytes caps raw input; zero selects DefaultMaxInputBytes.
	MaxInputBytes int

	// MaxDepth caps element nesting; zero selects DefaultMaxDepth. Tags
	// nested deeper are dropped and their text kept.
	MaxDepth int
}

// Policy is an immutable, validated sanitization policy. It is safe for
// unsynchronized concurrent reads.
type Policy struct {
	tags          map[string]struct{}
	attrs         map[string]struct{}
	rules         []InjectionRule
	allowDataURIs bool
	maxInputBytes int
	maxDepth      int
	fingerprint   string
}

var (
	namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

	// Elements that execute code, load active content or rewrite the
	// document. They can never be allow-listed.
	deniedTags = map[string]struct{}{
		"script": {}, "style": {}, "object": {}, "embed": {}, "applet": {},
		"base": {}, "meta": {}, "link": {}, "frame": {}, "frameset": {},
		"noscript": {}, "template": {}, "svg": {}, "math": {}, "form": {},
		"input": {}, "button": {}, "textarea": {}, "select": {},
	}

	deniedAttrs = map[string]struct{}{
		"style": {}, "srcdoc": {}, "formaction": {}, "action": {},
		"xmlns": {}, "http-equiv": {},
	}
)

// DefaultPolicyConfig returns the policy used for feed article content.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		AllowedTags: []string{
			"h1", "h2", "h3", "h4", "h5", "h6",
			"p", "br", "hr",
			"ul", "ol", "li",
			"blockquote", "pre", "code",
			"a", "strong", "b", "em", "i", "u", "s", "strike", "del", "ins",
			"img", "figure", "figcaption",
			"table", "thead", "tbody", "tfoot", "tr", "th", "td",
			"div", "span", "article", "section", "aside", "header", "footer",
			"video", "audio", "source", "iframe",
			"sup", "sub", "abbr", "cite", "q", "mark",
		},
		AllowedAttributes: []string{
			"href", "src", "alt", "title", "class", "id",
			"width", "height", "loading", "decoding",
			"target", "rel",
			"colspan", "rowspan", "headers", "scope",
			"controls", "autoplay", "loop", "muted", "poster",
			"frameborder", "allowfullscreen", "allow",
			"datetime", "cite",
		},
		InjectionRules: DefaultInjectionRules(),
		MaxInputBytes:  DefaultMaxInputBytes,
		MaxDepth:       DefaultMaxDepth,
	}
}

// DefaultInjectionRules hardens links against reverse-tabnabbing and makes
// images load lazily.
func DefaultInjectionRules() []InjectionRule {
	return []InjectionRule{
		{Element: "a", Attrs: []Attribute{
			{Key: "target", Val: "_blank"},
			{Key: "rel", Val: "noopener noreferrer"},
		}},
		{Element: "img", Attrs: []Attribute{
			{Key: "loading", Val: "lazy"},
			{Key: "decoding", Val: "async"},
		}},
	}
}

// DefaultPolicy returns the validated feed policy.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultPolicyConfig())
	if err != nil {
		panic(err)
	}
	return p
}

// NewPolicy validates cfg and freezes it into a Policy.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	var problems []string

	p := &Policy{
		tags:          make(map[string]struct{}, len(cfg.AllowedTags)),
		attrs:         make(map[string]struct{}, len(cfg.AllowedAttributes)),
		allowDataURIs: cfg.AllowDataURIImages,
		maxInputBytes: cfg.MaxInputBytes,
		maxDepth:      cfg.MaxDepth,
	}

	for _, raw := range cfg.AllowedTags {
		name := normalizeName(raw)
		switch {
		case !namePattern.MatchString(name):
			problems = append(problems, fmt.Sprintf("tag %q is not a valid element name", raw))
		case isDeniedTag(name):
			problems = append(problems, fmt.Sprintf("tag %q can execute or load active content", name))
		default:
			p.tags[name] = struct{}{}
		}
	}
	if len(cfg.AllowedTags) == 0 {
		problems = append(problems, "allowed tag list is empty")
	}

	for _, raw := range cfg.AllowedAttributes {
		name := normalizeName(raw)
		switch {
		case !namePattern.MatchString(name):
			problems = append(problems, fmt.Sprintf("attribute %q is not a valid attribute name", raw))
		case isDeniedAttr(name):
			problems = append(problems, fmt.Sprintf("attribute %q is an execution vector", name))
		default:
			p.attrs[name] = struct{}{}
		}
	}

	for i, rule := range cfg.InjectionRules {
		elem := normalizeName(rule.Element)
		if _, ok := p.tags[elem]; !ok {
			problems = append(problems, fmt.Sprintf("injection rule %d targets %q which is not an allowed tag", i, rule.Element))
		}
		if len(rule.Attrs) == 0 {
			problems = append(problems, fmt.Sprintf("injection rule %d for %q sets no attributes", i, rule.Element))
		}
		attrs := make([]Attribute, 0, len(rule.Attrs))
		seen := make(map[string]struct{}, len(rule.Attrs))
		for _, a := range rule.Attrs {
			key := normalizeName(a.Key)
			if _, ok := p.attrs[key]; !ok {
				problems = append(problems, fmt.Sprintf("injection rule %d sets %q which is not an allowed attribute", i, a.Key))
				continue
			}
			if _, dup := seen[key]; dup {
				problems = append(problems, fmt.Sprintf("injection rule %d sets %q twice", i, key))
				continue
			}
			seen[key] = struct{}{}
			attrs = append(attrs, Attribute{Key: key, Val: a.Val})
		}
		p.rules = append(p.rules, InjectionRule{Element: elem, Attrs: attrs})
	}

	switch {
	case cfg.MaxInputBytes < 0:
		problems = append(problems, fmt.Sprintf("max input bytes must not be negative, got %d", cfg.MaxInputBytes))
	case cfg.MaxInputBytes == 0:
		p.maxInputBytes = DefaultMaxInputBytes
	}

	switch {
	case cfg.MaxDepth < 0:
		problems = append(problems, fmt.Sprintf("max depth must not be negative, got %d", cfg.MaxDepth))
	case cfg.MaxDepth == 0:
		p.maxDepth = DefaultMaxDepth
	}

	if len(problems) > 0 {
		return nil, &PolicyConfigurationError{Problems: problems}
	}

	p.fingerprint = p.computeFingerprint()
	return p, nil
}

// AllowedTags returns a sorted copy of the tag allow-list.
func (p *Policy) AllowedTags() []string {
	return sortedKeys(p.tags)
}

// AllowedAttributes returns a sorted copy of the attribute allow-list.
func (p *Policy) AllowedAttributes() []string {
	return sortedKeys(p.attrs)
}

// InjectionRules returns a deep copy of the rules in their configured order.
func (p *Policy) InjectionRules() []InjectionRule {
	out := make([]InjectionRule, len(p.rules))
	for i, r := range p.rules {
		out[i] = InjectionRule{Element: r.Element, Attrs: slices.Clone(r.Attrs)}
	}
	return out
}

func (p *Policy) AllowsTag(name string) bool {
	_, ok := p.tags[name]
	return ok
}

func (p *Policy) AllowsAttribute(name string) bool {
	_, ok := p.attrs[name]
	return ok
}

func (p *Policy) AllowDataURIImages() bool { return p.allowDataURIs }

func (p *Policy) MaxInputBytes() int { return p.maxInputBytes }

func (p *Policy) MaxDepth() int { return p.maxDepth }

// Fingerprint identifies the policy contents. Two policies with the same
// allow-lists, rules and flags share a fingerprint.
func (p *Policy) Fingerprint() string { return p.fingerprint }

func (p *Policy) computeFingerprint() string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write("tags")
	for _, t := range p.AllowedTags() {
		write(t)
	}
	write("attrs")
	for _, a := range p.AllowedAttributes() {
		write(a)
	}
	write("rules")
	for _, r := range p.rules {
		write(r.Element)
		for _, a := range r.Attrs {
			write(a.Key)
			write(a.Val)
		}
	}
	write(strconv.FormatBool(p.allowDataURIs))
	write(strconv.Itoa(p.maxInputBytes))
	write(strconv.Itoa(p.maxDepth))
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isDeniedTag(name string) bool {
	_, ok := deniedTags[name]
	return ok
}

func isDeniedAttr(name string) bool {
	if strings.HasPrefix(name, "on") || strings.HasPrefix(name, "data-") {
		return true
	}
	_, ok := deniedAttrs[name]
	return ok
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
