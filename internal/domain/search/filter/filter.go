package filter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxClauses is the maximum number of clauses in one expression.
const MaxClauses = 16

// ErrQuoteInValue is returned for string values carrying quote characters.
// Values are embedded in quoted filter literals, so they are rejected instead of escaped.
var ErrQuoteInValue = errors.New("filter value must not contain quote characters")

// Op is a comparison operator of the backend filter language.
type Op string

// Supported operators.
const (
	Eq Op = "eq"
	Ge Op = "ge"
	Le Op = "le"
)

// Clause is a single filter constraint: either a string equality or a numeric comparison.
type Clause struct {
	field  string
	op     Op
	text   string
	number float64
	numSet bool
}

// NewMatch creates a string equality clause.
func NewMatch(field, value string) (Clause, error) {
	if field == "" {
		return Clause{}, errors.New("filter field is required")
	}
	if value == "" {
		return Clause{}, fmt.Errorf("match value is required for field %q", field)
	}
	if strings.ContainsAny(value, `'"`) {
		return Clause{}, fmt.Errorf("field %q: %w", field, ErrQuoteInValue)
	}
	return Clause{field: field, op: Eq, text: value}, nil
}

// NewComparison creates a numeric comparison clause.
func NewComparison(field string, op Op, value float64) (Clause, error) {
	if field == "" {
		return Clause{}, errors.New("filter field is required")
	}
	switch op {
	case Eq, Ge, Le:
	default:
		return Clause{}, fmt.Errorf("unsupported operator %q for field %q", op, field)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Clause{}, fmt.Errorf("field %q: value must be a finite number", field)
	}
	return Clause{field: field, op: op, number: value, numSet: true}, nil
}

// Field returns the filtered field name.
func (c Clause) Field() string { return c.field }

// Op returns the operator.
func (c Clause) Op() Op { return c.op }

// Text returns the string value of a match clause.
func (c Clause) Text() string { return c.text }

// Number returns the numeric value of a comparison clause.
func (c Clause) Number() float64 { return c.number }

// IsMatch reports whether this is a string equality clause.
func (c Clause) IsMatch() bool { return !c.numSet }

// IsComparison reports whether this is a numeric comparison clause.
func (c Clause) IsComparison() bool { return c.numSet }

// OData renders the clause in OData filter syntax, e.g. "tipologia eq 'Italiana'" or "precio le 20".
func (c Clause) OData() string {
	if c.numSet {
		return c.field + " " + string(c.op) + " " + FormatNumber(c.number)
	}
	return c.field + " " + string(c.op) + " '" + c.text + "'"
}

// FormatNumber renders a number as the shortest plain decimal literal ("4", "12.5").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Expression is an ordered conjunction of clauses.
type Expression struct {
	clauses []Clause
}

// NewExpression validates and creates an Expression. Clause order is preserved.
func NewExpression(clauses ...Clause) (Expression, error) {
	if len(clauses) > MaxClauses {
		return Expression{}, fmt.Errorf("too many filter clauses (max %d)", MaxClauses)
	}
	if len(clauses) == 0 {
		return Expression{}, nil
	}
	cp := make([]Clause, len(clauses))
	copy(cp, clauses)
	return Expression{clauses: cp}, nil
}

// Clauses returns the clauses in render order.
func (e Expression) Clauses() []Clause { return e.clauses }

// IsEmpty reports whether the expression has no clauses.
func (e Expression) IsEmpty() bool { return len(e.clauses) == 0 }

// OData joins all clauses with " and ". Empty expression renders as "".
func (e Expression) OData() string {
	if len(e.clauses) == 0 {
		return ""
	}
	parts := make([]string, len(e.clauses))
	for i, c := range e.clauses {
		parts[i] = c.OData()
	}
	return strings.Join(parts, " and ")
}
