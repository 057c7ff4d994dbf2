// Package annotation recognizes inline tags such as `#topic`, `++priority`,
// `!todo=2` or `@private=true` in rendered text. Tags with the `@` marker are
// private annotations and can be stripped before publishing.
package annotation

import (
	"regexp"
	"strings"
)

// PrivateMarker prefixes private annotations.
const PrivateMarker = "@"

// identChars covers ASCII letters, underscore, Latin-1 accented letters, digits and colon.
const identChars = `:A-Za-z_\x{C0}-\x{FF}\d`

var tagRegex = regexp.MustCompile(
	`(#|\+{1,5}|-{1,5}|~|\?|!|@)` + // marker
		`([` + identChars + `][` + identChars + `-]*)` + // name
		`(=(true|false|[` + identChars + `-]+|"[^"]*")?(-?\d*(\.\d+)?)?)?`, // optional value
)

// Tag is one recognized inline tag.
type Tag struct {
	Marker string
	Name   string
	Value  string
	Raw    string
}

// Private reports whether the tag is a private annotation.
func (t Tag) Private() bool { return t.Marker == PrivateMarker }

// Find returns every tag in text, in order of appearance.
func Find(text string) []Tag {
	matches := tagRegex.FindAllStringSubmatch(text, -1)
	tags := make([]Tag, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, Tag{
			Marker: m[1],
			Name:   m[2],
			Value:  strings.TrimPrefix(m[3], "="),
			Raw:    m[0],
		})
	}
	return tags
}

// Strip removes every private tag from text by literal replacement of the
// full tag; all other tags are left in place.
func Strip(text string) string {
	for _, tag := range Find(text) {
		if tag.Private() {
			text = strings.ReplaceAll(text, tag.Raw, "")
		}
	}
	return text
}
