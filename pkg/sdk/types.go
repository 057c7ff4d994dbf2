package pesto

import (
	"fmt"
	"io"

	"github.com/kailas-cloud/pesto/internal/domain/batch"
	"github.com/kailas-cloud/pesto/internal/domain/value"
)

// Document is one entry of a dump. Keys keep their source order.
type Document = value.Object

// ReadDocuments decodes a JSON dump (an array of objects).
func ReadDocuments(r io.Reader) ([]*Document, error) {
	docs, err := value.DecodeDump(r)
	if err != nil {
		return nil, fmt.Errorf("pesto: %w", err)
	}
	return docs, nil
}

// WriteDocuments encodes docs as a JSON dump.
func WriteDocuments(w io.Writer, docs []*Document) error {
	if err := value.EncodeDump(w, docs); err != nil {
		return fmt.Errorf("pesto: %w", err)
	}
	return nil
}

// Output is a rendered document.
type Output struct {
	Name    string
	Content string
}

// Summary counts the outcome of a Build.
type Summary struct {
	Written  int
	Rendered int
	Failed   int
}

func summaryFrom(results []batch.Result) Summary {
	s := batch.Summarize(results)
	return Summary{Written: s.Written, Rendered: s.Rendered, Failed: s.Failed}
}
