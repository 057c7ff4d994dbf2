package pesto

import "github.com/kailas-cloud/pesto/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidExpression    = domain.ErrInvalidExpression
	ErrUnknownOperator      = domain.ErrUnknownOperator
	ErrInvalidRule          = domain.ErrInvalidRule
	ErrInvalidPattern       = domain.ErrInvalidPattern
	ErrFilenameFieldMissing = domain.ErrFilenameFieldMissing
	ErrInvalidFilename      = domain.ErrInvalidFilename
	ErrFileAlreadyExists    = domain.ErrFileAlreadyExists
)
