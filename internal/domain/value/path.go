package value

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/pesto/internal/domain"
)

// DefaultPathSeparator joins the segments of a document path.
const DefaultPathSeparator = "."

// Resolve walks doc one key per path segment. It fails with
// domain.ErrPathNotFound when a segment is missing or an intermediate
// value is not an object; lists are not indexable.
func Resolve(doc *Object, path, sep string) (Value, error) {
	if sep == "" {
		sep = DefaultPathSeparator
	}

	cur := FromObject(doc)
	for _, key := range strings.Split(path, sep) {
		if cur.Kind() != KindObject {
			return Value{}, fmt.Errorf("%w: %q", domain.ErrPathNotFound, path)
		}
		next, ok := cur.Object().Get(key)
		if !ok {
			return Value{}, fmt.Errorf("%w: %q", domain.ErrPathNotFound, path)
		}
		cur = next
	}
	return cur, nil
}
