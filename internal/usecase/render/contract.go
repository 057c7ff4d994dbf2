package render

import (
	"context"

	"github.com/kailas-cloud/pesto/internal/domain/value"
)

// Template renders a document context to text.
type Template interface {
	Execute(ctx *value.Object) (string, error)
}

// Writer persists rendered output under a derived name.
// Without overwrite an existing output fails with domain.ErrFileAlreadyExists.
type Writer interface {
	Write(ctx context.Context, name string, content []byte, overwrite bool) error
}
