// Package expr generates short math statements whose value equals a target
// number.
//
// Three categories exist. Arithmetic statements are fully stated sums,
// differences, products and quotients ("12 + 8"). Unit and time conversions
// state one or more measured components and end with an unknown marker
// carrying the unit of the answer ("2 h = ? min").
//
// Expressions are structured values: the unknown marker is a field, never a
// pattern in rendered text. Rendering goes through a [Formatter] so that
// decimals follow the configured locale.
package expr

import (
	"fmt"
	"math"
	"strings"
)

// Category selects the kind of statement.
type Category string

const (
	CategoryArithmetic Category = "arithmetic"
	CategoryUnit       Category = "unit"
	CategoryTime       Category = "time"
)

// Difficulty widens operand ranges and enables longer forms.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// level orders difficulties for comparisons.
func (d Difficulty) level() int {
	switch d {
	case DifficultyMedium:
		return 1
	case DifficultyHard:
		return 2
	}
	return 0
}

// Op is an arithmetic operator.
type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "×"
	OpDiv Op = "÷"
)

func (o Op) apply(a, b float64) float64 {
	switch o {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	}
	return math.NaN()
}

// Unit names a measurement unit.
type Unit string

// Term is one stated number, with a unit for conversions.
type Term struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit,omitempty"`
}

// Unknown marks the quantity to solve for.
type Unknown struct {
	Unit Unit `json:"unit"`
}

// Expression is a structured statement.
//
// Arithmetic expressions hold len(Terms)-1 operators and no Unknown.
// Conversions hold no operators: their terms are added components of one
// quantity, and Unknown names the unit of the answer.
type Expression struct {
	Category Category `json:"category"`
	Terms    []Term   `json:"terms"`
	Ops      []Op     `json:"ops,omitempty"`
	// Grouped is the number of leading terms wrapped in parentheses.
	Grouped int      `json:"grouped,omitempty"`
	Unknown *Unknown `json:"unknown,omitempty"`
	// Value is what the statement evaluates to.
	Value float64 `json:"value"`
}

// Body renders the stated part of the expression.
func (e Expression) Body(f *Formatter) string {
	if f == nil {
		f = DefaultFormatter()
	}
	var b strings.Builder
	for i, t := range e.Terms {
		if i > 0 {
			b.WriteByte(' ')
			if i-1 < len(e.Ops) {
				b.WriteString(string(e.Ops[i-1]))
				b.WriteByte(' ')
			}
		}
		if i == 0 && e.Grouped > 1 {
			b.WriteByte('(')
		}
		b.WriteString(f.Number(t.Value))
		if t.Unit != "" {
			b.WriteByte(' ')
			b.WriteString(string(t.Unit))
		}
		if e.Grouped > 1 && i == e.Grouped-1 {
			b.WriteByte(')')
		}
	}
	return b.String()
}

// Suffix renders the unknown marker, or "" for arithmetic.
func (e Expression) Suffix() string {
	if e.Unknown == nil {
		return ""
	}
	return "= ? " + string(e.Unknown.Unit)
}

// Render returns the full statement.
func (e Expression) Render(f *Formatter) string {
	if s := e.Suffix(); s != "" {
		return e.Body(f) + " " + s
	}
	return e.Body(f)
}

// String renders with the default formatter.
func (e Expression) String() string { return e.Render(nil) }

// Eval computes the value of the stated part in the unit of the answer.
func (e Expression) Eval() float64 {
	if e.Category != CategoryArithmetic {
		fam, ok := familyOf(e.Unknown)
		if !ok {
			return math.NaN()
		}
		var base float64
		for _, t := range e.Terms {
			f, ok := fam.factor(t.Unit)
			if !ok {
				return math.NaN()
			}
			base += t.Value * float64(f)
		}
		f, _ := fam.factor(e.Unknown.Unit)
		return base / float64(f)
	}
	if len(e.Terms) == 0 {
		return math.NaN()
	}
	// Multiplicative operators only ever appear at the front, so a left
	// fold respects precedence.
	v := e.Terms[0].Value
	for i, op := range e.Ops {
		if i+1 >= len(e.Terms) {
			return math.NaN()
		}
		v = op.apply(v, e.Terms[i+1].Value)
	}
	return v
}

// Validate checks the structural rules of the expression's category.
func (e Expression) Validate() error {
	if len(e.Terms) == 0 {
		return fmt.Errorf("expression has no terms")
	}
	switch e.Category {
	case CategoryArithmetic:
		if e.Unknown != nil {
			return fmt.Errorf("arithmetic expression carries an unknown marker")
		}
		if len(e.Ops) != len(e.Terms)-1 {
			return fmt.Errorf("arithmetic expression has %d terms and %d operators", len(e.Terms), len(e.Ops))
		}
	case CategoryUnit, CategoryTime:
		if e.Unknown == nil || e.Unknown.Unit == "" {
			return fmt.Errorf("conversion lacks an unknown marker")
		}
		if len(e.Ops) != 0 {
			return fmt.Errorf("conversion carries operators")
		}
		for _, t := range e.Terms {
			if t.Value == 0 {
				return fmt.Errorf("conversion states a zero component")
			}
			if t.Unit == e.Unknown.Unit {
				return fmt.Errorf("unit %s appears on both sides", t.Unit)
			}
		}
	default:
		return fmt.Errorf("unknown category %q", e.Category)
	}
	if v := e.Eval(); !closeTo(v, e.Value) {
		return fmt.Errorf("expression evaluates to %v, want %v", v, e.Value)
	}
	return nil
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}
