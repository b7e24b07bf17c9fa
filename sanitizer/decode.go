package sanitizer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// DecodeEntities reverses exactly one level of HTML character references,
// so "&lt;p&gt;" becomes "<p>" and "&amp;lt;" becomes "&lt;". The input is
// treated as inert text the way a textarea value is read back: markup is
// never parsed, so nothing can run or load. Text without references is
// returned unchanged apart from CR/CRLF line endings becoming LF.
func DecodeEntities(raw string) string {
	if strings.IndexByte(raw, '\r') >= 0 {
		raw = newlineReplacer.Replace(raw)
	}
	if strings.IndexByte(raw, '&') < 0 {
		return raw
	}
	return html.UnescapeString(raw)
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
