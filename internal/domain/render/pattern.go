// Package render holds the per-invocation rendering settings shared by every document.
package render

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/pesto/internal/domain"
	"github.com/kailas-cloud/pesto/internal/domain/value"
)

// DefaultFileName names output files after their creation date.
const DefaultFileName = "{created_at}.md"

// Pattern is a filename pattern with `{field}` placeholders resolved
// against the template context. `{{` and `}}` produce literal braces.
type Pattern struct {
	raw   string
	parts []patternPart
}

type patternPart struct {
	literal string
	field   string
}

// ParsePattern parses a filename pattern.
func ParsePattern(s string) (Pattern, error) {
	p := Pattern{raw: s}
	var lit strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return Pattern{}, fmt.Errorf("%w %q: unclosed '{'", domain.ErrInvalidPattern, s)
			}
			field := s[i+1 : i+1+end]
			if field == "" || strings.ContainsRune(field, '{') {
				return Pattern{}, fmt.Errorf("%w %q: bad placeholder {%s}", domain.ErrInvalidPattern, s, field)
			}
			if lit.Len() > 0 {
				p.parts = append(p.parts, patternPart{literal: lit.String()})
				lit.Reset()
			}
			p.parts = append(p.parts, patternPart{field: field})
			i += end + 1
		case c == '}':
			return Pattern{}, fmt.Errorf("%w %q: single '}'", domain.ErrInvalidPattern, s)
		default:
			lit.WriteByte(c)
		}
	}
	if lit.Len() > 0 {
		p.parts = append(p.parts, patternPart{literal: lit.String()})
	}
	return p, nil
}

// String returns the source pattern.
func (p Pattern) String() string { return p.raw }

// Fields returns the placeholder names in order of appearance.
func (p Pattern) Fields() []string {
	var fields []string
	for _, part := range p.parts {
		if part.field != "" {
			fields = append(fields, part.field)
		}
	}
	return fields
}

// Expand substitutes every placeholder with the text of the context value.
// A placeholder missing from ctx fails with domain.ErrFilenameFieldMissing.
func (p Pattern) Expand(ctx *value.Object) (string, error) {
	var b strings.Builder
	for _, part := range p.parts {
		if part.field == "" {
			b.WriteString(part.literal)
			continue
		}
		v, ok := ctx.Get(part.field)
		if !ok {
			return "", fmt.Errorf("%w: %q in %q", domain.ErrFilenameFieldMissing, part.field, p.raw)
		}
		b.WriteString(v.Text())
	}
	return b.String(), nil
}
