package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/pesto/internal/domain"
	"github.com/kailas-cloud/pesto/internal/domain/value"
)

var booleanLiterals = map[string]bool{
	"true":  true,
	"yes":   true,
	"1":     true,
	"false": false,
	"no":    false,
	"0":     false,
}

// Coerce interprets a raw filter literal according to the kind of the
// document value it will be compared with.
func Coerce(ref value.Value, raw string) (value.Value, error) {
	switch ref.Kind() {
	case value.KindBool:
		b, ok := booleanLiterals[strings.ToLower(raw)]
		if !ok {
			return value.Value{}, fmt.Errorf("%w: %q", domain.ErrInvalidBooleanLiteral, raw)
		}
		return value.Bool(b), nil
	case value.KindNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("%w: %q is not a number", domain.ErrTypeMismatch, raw)
		}
		return value.Number(f), nil
	default:
		// strings, lists, objects and null compare against the raw text
		return value.String(raw), nil
	}
}
