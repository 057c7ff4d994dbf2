// Package flat turns nested documents into single-level template contexts.
package flat

import (
	"strings"

	"github.com/kailas-cloud/pesto/internal/domain/value"
)

const (
	// DefaultSeparator joins parent and child keys.
	DefaultSeparator = "_"
	// DefaultSanitize lists the characters replaced by the separator in flattened keys.
	DefaultSanitize = ":.- "
)

type options struct {
	sep      string
	sanitize string
}

// Option configures Flatten.
type Option func(*options)

// WithSeparator sets the key separator.
func WithSeparator(sep string) Option {
	return func(o *options) { o.sep = sep }
}

// WithSanitize sets the characters replaced by the separator.
func WithSanitize(chars string) Option {
	return func(o *options) { o.sanitize = chars }
}

// Flatten expands nested objects into path-joined keys. Lists and scalars are
// leaves stored as-is. Every sanitize character in a composed key is replaced
// by the separator. When two paths collapse to the same key the last one wins.
func Flatten(doc *value.Object, opts ...Option) *value.Object {
	o := options{sep: DefaultSeparator, sanitize: DefaultSanitize}
	for _, opt := range opts {
		opt(&o)
	}

	pairs := make([]string, 0, 2*len(o.sanitize))
	for _, c := range o.sanitize {
		pairs = append(pairs, string(c), o.sep)
	}
	f := flattener{sep: o.sep, replacer: strings.NewReplacer(pairs...)}

	out := value.NewObject()
	f.walk(out, doc, "")
	return out
}

type flattener struct {
	sep      string
	replacer *strings.Replacer
}

func (f flattener) walk(out, obj *value.Object, parent string) {
	obj.Range(func(key string, v value.Value) bool {
		if parent != "" {
			key = parent + f.sep + key
		}
		if v.Kind() == value.KindObject {
			f.walk(out, v.Object(), key)
			return true
		}
		out.Set(f.replacer.Replace(key), v)
		return true
	})
}
