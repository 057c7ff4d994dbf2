package query

import "fmt"

// ParseError reports a filter expression that cannot be parsed.
type ParseError struct {
	Expr string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("filter %q: %v", e.Expr, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EvaluationError reports a literal that cannot be compared with a document value.
type EvaluationError struct {
	Path     string
	Operator Operator
	Err      error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %s__%s: %v", e.Path, e.Operator, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
