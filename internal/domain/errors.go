package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPathNotFound signals that a dotted path does not resolve in a document.
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidBooleanLiteral signals a filter literal outside the boolean vocabulary.
	ErrInvalidBooleanLiteral = errors.New("invalid boolean literal")
	// ErrTypeMismatch signals an operator applied to an incompatible value.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidExpression signals a malformed filter expression.
	ErrInvalidExpression = errors.New("invalid filter expression")
	// ErrUnknownOperator signals an unsupported __operator suffix.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrInvalidRule signals a malformed key=value rule.
	ErrInvalidRule = errors.New("invalid rule")
	// ErrInvalidPattern signals a malformed filename pattern.
	ErrInvalidPattern = errors.New("invalid filename pattern")

	// ErrFilenameFieldMissing signals a filename placeholder absent from the context.
	ErrFilenameFieldMissing = errors.New("filename field missing")
	// ErrInvalidFilename signals a derived filename escaping the output location.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrFileAlreadyExists signals a write onto an existing output without overwrite.
	ErrFileAlreadyExists = errors.New("file already exists")
)

// DocumentError attaches the identity of the source document to a per-document failure.
type DocumentError struct {
	Index int
	ID    string
	Err   error
}

func (e *DocumentError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("document #%d (id=%s): %s", e.Index, e.ID, e.Err.Error())
	}
	return fmt.Sprintf("document #%d: %s", e.Index, e.Err.Error())
}

func (e *DocumentError) Unwrap() error { return e.Err }

// NewDocumentError wraps err with the position and id of the failing document.
func NewDocumentError(index int, id string, err error) error {
	return &DocumentError{Index: index, ID: id, Err: err}
}
