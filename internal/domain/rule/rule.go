// Package rule builds template contexts from flattened documents using
// alias, default and override rules written as `key=value`.
package rule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pesto/internal/domain"
	"github.com/kailas-cloud/pesto/internal/domain/value"
)

// FrontMatterKey is the context key holding the extracted front matter.
const FrontMatterKey = "front_matter"

// Kind is the rule family.
type Kind string

// Rule kinds.
const (
	// Alias copies an existing key: `date=created_at`.
	Alias Kind = "alias"
	// Default sets a key only when absent: `layout=post.html`.
	Default Kind = "default"
	// Override always sets a key: `category=Posts`.
	Override Kind = "override"
)

// Rule is one parsed key=value rule.
type Rule struct {
	kind  Kind
	key   string
	raw   string
	value value.Value
}

// Parse parses `key=value`, splitting at the first `=`. For defaults and
// overrides the value is decoded as JSON when possible, else kept as text.
func Parse(kind Kind, s string) (Rule, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok {
		return Rule{}, fmt.Errorf("%w: %s %q: expected key=value", domain.ErrInvalidRule, kind, s)
	}
	if key == "" {
		return Rule{}, fmt.Errorf("%w: %s %q: empty key", domain.ErrInvalidRule, kind, s)
	}
	if kind == Alias && raw == "" {
		return Rule{}, fmt.Errorf("%w: %s %q: empty source key", domain.ErrInvalidRule, kind, s)
	}

	r := Rule{kind: kind, key: key, raw: raw}
	if kind != Alias {
		r.value = ParseValue(raw)
	}
	return r, nil
}

// ParseValue decodes raw as JSON, falling back to the raw string.
func ParseValue(raw string) value.Value {
	if v, err := value.Parse([]byte(raw)); err == nil {
		return v
	}
	return value.String(raw)
}

// Kind returns the rule family.
func (r Rule) Kind() Kind { return r.kind }

// Key returns the target key.
func (r Rule) Key() string { return r.key }

// Source returns the aliased key (aliases only).
func (r Rule) Source() string { return r.raw }

// Value returns the parsed value (defaults and overrides only).
func (r Rule) Value() value.Value { return r.value }

// Set is the ordered collection of context rules applied to every document.
type Set struct {
	aliases           []Rule
	defaults          []Rule
	overrides         []Rule
	frontMatter       bool
	frontMatterFields []string
}

// NewSet parses every rule up front; all failures are reported together.
func NewSet(aliases, defaults, overrides []string, frontMatter bool, frontMatterFields []string) (Set, error) {
	var errs []error
	parse := func(kind Kind, in []string) []Rule {
		out := make([]Rule, 0, len(in))
		for _, s := range in {
			r, err := Parse(kind, s)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, r)
		}
		return out
	}

	s := Set{
		aliases:           parse(Alias, aliases),
		defaults:          parse(Default, defaults),
		overrides:         parse(Override, overrides),
		frontMatter:       frontMatter,
		frontMatterFields: frontMatterFields,
	}
	if len(errs) > 0 {
		return Set{}, errors.Join(errs...)
	}
	return s, nil
}

// SplitFields splits a comma-separated field list, trimming blanks.
func SplitFields(s string) []string {
	var fields []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// FrontMatterFields returns the fields copied into the front matter.
func (s Set) FrontMatterFields() []string { return s.frontMatterFields }

// Build returns a new context derived from flat: aliases first, then
// defaults, then overrides, then front matter extraction.
func (s Set) Build(flat *value.Object) *value.Object {
	ctx := flat.Clone()

	for _, r := range s.aliases {
		if v, ok := ctx.Get(r.raw); ok {
			ctx.Set(r.key, v)
		}
	}
	for _, r := range s.defaults {
		if !ctx.Has(r.key) {
			ctx.Set(r.key, r.value)
		}
	}
	for _, r := range s.overrides {
		ctx.Set(r.key, r.value)
	}

	if s.frontMatter && len(s.frontMatterFields) > 0 {
		fm := value.NewObject()
		for _, field := range s.frontMatterFields {
			if v, ok := ctx.Get(field); ok {
				fm.Set(field, v)
			}
		}
		ctx.Set(FrontMatterKey, value.FromObject(fm))
	}
	return ctx
}
