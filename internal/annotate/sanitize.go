package annotate

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// maxDecodePasses bounds how many layers of entity encoding are peeled
// off before markup is stripped.
const maxDecodePasses = 8

var (
	stripTags     = bluemonday.StrictPolicy()
	percentOctets = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
)

// SanitizeText reduces submitted form input to a single line of plain text:
// invalid UTF-8 is rejected outright, markup is removed, percent-encoded
// octets are dropped, control characters and runs of whitespace collapse to
// single spaces, and the result is trimmed.
func SanitizeText(raw string) string {
	if !utf8.ValidString(raw) {
		return ""
	}
	text := raw
	for i := 0; i < maxDecodePasses; i++ {
		next := html.UnescapeString(stripTags.Sanitize(html.UnescapeString(text)))
		if next == text {
			break
		}
		text = next
	}
	text = percentOctets.ReplaceAllString(text, "")
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}
