// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"
	"unicode"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email trims and lower-cases an email address. Identities are compared
// in this form everywhere.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Tag trims a tag and collapses internal whitespace runs to one space.
func Tag(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Tags normalizes each tag, drops empties and case-insensitive duplicates,
// and keeps first-seen order.
func Tags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, raw := range in {
		t := Tag(raw)
		if t == "" {
			continue
		}
		key := text.Fold(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// SplitTags splits a comma-separated form value into normalized tags.
func SplitTags(s string) []string {
	return Tags(strings.Split(s, ","))
}

// Hashtag strips every whitespace rune from a tag and prefixes "#".
// It returns "" when nothing is left.
func Hashtag(tag string) string {
	var b strings.Builder
	for _, r := range tag {
		if unicode.IsSpace(r) || r == '#' {
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}
