// Package query implements the single-condition filter language used to
// select documents from a dump, e.g. `status=published`, `views__gte=100`,
// `tags__in=launch` or a bare `title` (existence check).
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pesto/internal/domain"
	"github.com/kailas-cloud/pesto/internal/domain/value"
)

// operatorSuffix joins a path and an explicit operator: `field__operator`.
const operatorSuffix = "__"

// separators are scanned in this order; the first one present in an
// expression wins and splits it at its first occurrence.
var separators = []struct {
	token string
	op    Operator
}{
	{">=", OpGte},
	{"!=", OpNe},
	{"<=", OpLte},
	{"<", OpLt},
	{">", OpGt},
	{"=", OpExact},
}

// Predicate is one parsed filter condition.
type Predicate struct {
	expr       string
	path       string
	op         Operator
	literal    string
	hasLiteral bool
}

// Parse parses a filter expression.
func Parse(expr string) (Predicate, error) {
	p := Predicate{expr: expr, path: expr, op: OpExists}

	for _, sep := range separators {
		if path, literal, ok := strings.Cut(expr, sep.token); ok {
			p.path, p.literal, p.hasLiteral, p.op = path, literal, true, sep.op
			break
		}
	}

	if i := strings.LastIndex(p.path, operatorSuffix); i >= 0 {
		op := Operator(p.path[i+len(operatorSuffix):])
		if !op.IsValid() {
			return Predicate{}, &ParseError{Expr: expr, Err: fmt.Errorf("%w %q", domain.ErrUnknownOperator, string(op))}
		}
		p.path, p.op = p.path[:i], op
	}

	if p.path == "" {
		return Predicate{}, &ParseError{Expr: expr, Err: fmt.Errorf("%w: empty path", domain.ErrInvalidExpression)}
	}
	if p.op != OpExists && !p.hasLiteral {
		return Predicate{}, &ParseError{
			Expr: expr,
			Err:  fmt.Errorf("%w: operator %s requires a value", domain.ErrInvalidExpression, p.op),
		}
	}
	return p, nil
}

// Path returns the dotted document path.
func (p Predicate) Path() string { return p.path }

// Operator returns the comparison operator.
func (p Predicate) Operator() Operator { return p.op }

// Literal returns the raw comparison literal, if any.
func (p Predicate) Literal() (string, bool) { return p.literal, p.hasLiteral }

// String returns the source expression.
func (p Predicate) String() string { return p.expr }

// Evaluate applies the predicate to doc. A path that does not resolve is a
// non-match, not an error; errors report literals that cannot be compared
// with the stored value.
func (p Predicate) Evaluate(doc *value.Object) (bool, error) {
	field, err := value.Resolve(doc, p.path, value.DefaultPathSeparator)
	if err != nil {
		if errors.Is(err, domain.ErrPathNotFound) {
			return false, nil
		}
		return false, err
	}

	if p.op == OpExists {
		return true, nil
	}

	operand, err := Coerce(field, p.literal)
	if err != nil {
		return false, &EvaluationError{Path: p.path, Operator: p.op, Err: err}
	}

	ok, err := operators[p.op](field, operand)
	if err != nil {
		return false, &EvaluationError{Path: p.path, Operator: p.op, Err: err}
	}
	return ok, nil
}

// Match is Evaluate with comparison errors treated as a non-match.
func (p Predicate) Match(doc *value.Object) bool {
	ok, err := p.Evaluate(doc)
	return err == nil && ok
}
