package sanitizer

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Elements whose text must disappear together with the tag when they are
// not allow-listed. Script text never survives as visible text. Void
// elements must not be listed: they have no end tag to stop skipping.
var skipContentElements = []string{
	"script", "style", "noscript", "template", "object", "applet",
	"frameset", "noframes", "noembed", "svg", "math", "title",
	"textarea", "select",
}

var urlSchemes = []string{"http", "https", "mailto"}

// buildEngine translates p into a bluemonday policy.
func buildEngine(p *Policy) *bluemonday.Policy {
	bm := bluemonday.NewPolicy()
	bm.AllowElements(p.AllowedTags()...)
	bm.AllowAttrs(p.AllowedAttributes()...).Globally()

	bm.RequireParseableURLs(true)
	bm.AllowRelativeURLs(true)
	bm.AllowURLSchemes(urlSchemes...)
	if p.allowDataURIs {
		bm.AllowDataURIImages()
	}

	bm.SkipElementsContent(skipContentElements...)
	return bm
}

func isURLAttr(key string) bool {
	switch key {
	case "href", "src", "cite", "poster":
		return true
	}
	return false
}

// urlAllowed re-checks a URL attribute on the parsed output. bluemonday
// only validates URLs on the elements it knows to be linkable, so a
// globally allowed href on a div is checked here.
func (p *Policy) urlAllowed(element, key, val string) bool {
	v := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(val))
	if v == "" {
		return false
	}

	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "":
		return true
	case "http", "https", "mailto":
		return true
	case "data":
		return p.allowDataURIs && element == "img" && key == "src" &&
			strings.HasPrefix(strings.ToLower(v), "data:image/")
	default:
		return false
	}
}
