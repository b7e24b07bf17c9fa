package sanitizer

import (
	"encoding/json"
	"html/template"
)

// SanitizedContent is markup produced by a Sanitizer. The zero value is
// empty content. Only this package, or an explicit AssumeSanitized call,
// can create a non-empty value.
type SanitizedContent struct {
	html string
}

// AssumeSanitized marks s as sanitizer output without sanitizing it. It is
// the audited bypass for content that was sanitized earlier with the same
// policy, such as rows read back from storage.
func AssumeSanitized(s string) SanitizedContent {
	return SanitizedContent{html: s}
}

func (c SanitizedContent) String() string { return c.html }

func (c SanitizedContent) HTML() template.HTML { return template.HTML(c.html) }

func (c SanitizedContent) IsEmpty() bool { return c.html == "" }

func (c SanitizedContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.html)
}

// RenderHTML is the value a presentation layer injects without escaping.
type RenderHTML struct {
	HTML template.HTML `json:"__html"`
}

// WrapForRender hands sanitized content to the presentation layer.
func WrapForRender(c SanitizedContent) RenderHTML {
	return RenderHTML{HTML: c.HTML()}
}
