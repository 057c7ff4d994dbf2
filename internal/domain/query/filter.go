package query

import (
	"errors"

	"github.com/kailas-cloud/pesto/internal/domain/value"
)

// Filter combines include and exclude predicates: a document is kept iff
// every include matches and no exclude matches. With only one of the two
// sets supplied this is the same as honoring that set alone.
type Filter struct {
	include []Predicate
	exclude []Predicate
}

// NewFilter parses every include and exclude expression up front.
// All parse failures are reported together.
func NewFilter(includes, excludes []string) (Filter, error) {
	var errs []error

	parse := func(exprs []string) []Predicate {
		out := make([]Predicate, 0, len(exprs))
		for _, expr := range exprs {
			p, err := Parse(expr)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, p)
		}
		return out
	}

	f := Filter{include: parse(includes), exclude: parse(excludes)}
	if len(errs) > 0 {
		return Filter{}, errors.Join(errs...)
	}
	return f, nil
}

// Includes returns the include predicates.
func (f Filter) Includes() []Predicate { return f.include }

// Excludes returns the exclude predicates.
func (f Filter) Excludes() []Predicate { return f.exclude }

// IsEmpty reports whether the filter keeps every document.
func (f Filter) IsEmpty() bool { return len(f.include) == 0 && len(f.exclude) == 0 }

// Keep reports whether doc survives the filter.
func (f Filter) Keep(doc *value.Object) bool {
	keep, _ := f.Evaluate(doc)
	return keep
}

// Evaluate is Keep plus the comparison errors that were treated as non-matches.
func (f Filter) Evaluate(doc *value.Object) (bool, error) {
	var errs []error

	for _, p := range f.include {
		ok, err := p.Evaluate(doc)
		if err != nil {
			errs = append(errs, err)
		}
		if !ok {
			return false, errors.Join(errs...)
		}
	}
	for _, p := range f.exclude {
		ok, err := p.Evaluate(doc)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			return false, errors.Join(errs...)
		}
	}
	return true, errors.Join(errs...)
}

// Apply returns the surviving documents in their original order.
func (f Filter) Apply(docs []*value.Object) []*value.Object {
	kept := make([]*value.Object, 0, len(docs))
	for _, doc := range docs {
		if f.Keep(doc) {
			kept = append(kept, doc)
		}
	}
	return kept
}
