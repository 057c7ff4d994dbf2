package query

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pesto/internal/domain"
	"github.com/kailas-cloud/pesto/internal/domain/value"
)

// Operator is a comparison applied between a document value and a filter literal.
type Operator string

// Supported operators.
const (
	OpExact  Operator = "exact"
	OpIExact Operator = "iexact"
	OpNe     Operator = "ne"
	OpGt     Operator = "gt"
	OpGte    Operator = "gte"
	OpLt     Operator = "lt"
	OpLte    Operator = "lte"
	OpIn     Operator = "in"
	// OpExists matches any resolvable path, including empty or falsy values.
	OpExists Operator = "exists"
)

// Operators lists every supported operator.
func Operators() []Operator {
	return []Operator{OpExact, OpIExact, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpExists}
}

// IsValid checks if the operator is one of the supported values.
func (o Operator) IsValid() bool {
	_, ok := operators[o]
	return ok
}

// operatorFunc compares a document value with an already coerced operand.
type operatorFunc func(field, operand value.Value) (bool, error)

var operators = map[Operator]operatorFunc{
	OpExact:  operatorExact,
	OpIExact: operatorIExact,
	OpNe:     operatorNotEqual,
	OpGt:     ordered(func(c int) bool { return c > 0 }),
	OpGte:    ordered(func(c int) bool { return c >= 0 }),
	OpLt:     ordered(func(c int) bool { return c < 0 }),
	OpLte:    ordered(func(c int) bool { return c <= 0 }),
	OpIn:     operatorIn,
	OpExists: operatorExists,
}

func operatorExact(field, operand value.Value) (bool, error) {
	switch field.Kind() {
	case value.KindString:
		return field.Str() == operand.Str(), nil
	case value.KindNumber:
		return field.Num() == operand.Num(), nil
	case value.KindBool:
		return field.Bool() == operand.Bool(), nil
	default:
		// null, lists and objects never equal a textual literal
		return false, nil
	}
}

func operatorNotEqual(field, operand value.Value) (bool, error) {
	eq, err := operatorExact(field, operand)
	if err != nil {
		return false, err
	}
	return !eq, nil
}

func operatorIExact(field, operand value.Value) (bool, error) {
	if field.Kind() != value.KindString {
		return false, fmt.Errorf("%w: iexact requires a string, got %s", domain.ErrTypeMismatch, field.Kind())
	}
	return strings.EqualFold(field.Str(), operand.Str()), nil
}

func ordered(accept func(c int) bool) operatorFunc {
	return func(field, operand value.Value) (bool, error) {
		c, err := compare(field, operand)
		if err != nil {
			return false, err
		}
		return accept(c), nil
	}
}

// compare orders field against operand: numbers numerically, strings
// lexicographically, booleans with false < true.
func compare(field, operand value.Value) (int, error) {
	switch field.Kind() {
	case value.KindString:
		return strings.Compare(field.Str(), operand.Str()), nil
	case value.KindNumber:
		return cmp.Compare(field.Num(), operand.Num()), nil
	case value.KindBool:
		return cmp.Compare(boolRank(field.Bool()), boolRank(operand.Bool())), nil
	default:
		return 0, fmt.Errorf("%w: cannot order %s values", domain.ErrTypeMismatch, field.Kind())
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func operatorIn(field, operand value.Value) (bool, error) {
	needle := operand.Str()
	switch field.Kind() {
	case value.KindString:
		return strings.Contains(field.Str(), needle), nil
	case value.KindList:
		for _, item := range field.Items() {
			if item.Text() == needle {
				return true, nil
			}
		}
		return false, nil
	case value.KindObject:
		return field.Object().Has(needle), nil
	default:
		return false, fmt.Errorf("%w: in requires a string, list or object, got %s", domain.ErrTypeMismatch, field.Kind())
	}
}

func operatorExists(_, _ value.Value) (bool, error) {
	return true, nil
}
