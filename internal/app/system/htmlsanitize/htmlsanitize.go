// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText strips all markup from user-supplied text (notes, comments,
// video descriptions). YouTube rejects angle brackets in titles and
// descriptions, so any that survive entity decoding are removed too.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	out := html.UnescapeString(strict.Sanitize(s))
	out = strings.NewReplacer("<", "", ">", "").Replace(out)
	return strings.TrimSpace(out)
}
