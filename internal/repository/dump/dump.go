// Package dump reads and writes JSON database dumps.
package dump

import (
	"fmt"
	"io"
	"os"

	"github.com/kailas-cloud/pesto/internal/domain/value"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// ReadFile loads a dump from path, or from stdin when path is "-".
func ReadFile(path string, stdin io.Reader) ([]*value.Object, error) {
	if path == Stdin {
		docs, err := value.DecodeDump(stdin)
		if err != nil {
			return nil, fmt.Errorf("read dump from stdin: %w", err)
		}
		return docs, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	docs, err := value.DecodeDump(f)
	if err != nil {
		return nil, fmt.Errorf("read dump %s: %w", path, err)
	}
	return docs, nil
}

// Write encodes docs as an indented JSON array.
func Write(w io.Writer, docs []*value.Object) error {
	if err := value.EncodeDump(w, docs); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	return nil
}
