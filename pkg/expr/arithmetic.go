package expr

import (
	"fmt"
	"strings"
)

// ArithmeticMode selects the operators used by arithmetic statements.
type ArithmeticMode string

const (
	ModeAdd     ArithmeticMode = "add"
	ModeAddSub  ArithmeticMode = "addsub"
	ModeMult    ArithmeticMode = "mult"
	ModeMultDiv ArithmeticMode = "multdiv"
	ModeMix     ArithmeticMode = "mix"
)

// ParseArithmeticMode parses a mode name. The empty string selects
// ModeAddSub.
func ParseArithmeticMode(s string) (ArithmeticMode, error) {
	switch m := ArithmeticMode(strings.ToLower(s)); m {
	case "":
		return ModeAddSub, nil
	case ModeAdd, ModeAddSub, ModeMult, ModeMultDiv, ModeMix:
		return m, nil
	}
	return "", fmt.Errorf("unknown arithmetic mode %q", s)
}

func (m ArithmeticMode) additive() bool {
	return m == ModeAdd || m == ModeAddSub || m == ModeMix
}

func (m ArithmeticMode) subtractive() bool {
	return m == ModeAddSub || m == ModeMix
}

func (m ArithmeticMode) multiplicative() bool {
	return m == ModeMult || m == ModeMultDiv || m == ModeMix
}

func (m ArithmeticMode) divisive() bool {
	return m == ModeMultDiv || m == ModeMix
}

// Operand bounds of the two-term forms.
const (
	addSpan    = 500
	subSpan    = 40
	factorMax  = 20
	dividendMx = 800
	tripleMax  = 12
)

// operandMax bounds the extra operands of longer forms per difficulty.
func operandMax(d Difficulty) int {
	switch d {
	case DifficultyMedium:
		return 12
	case DifficultyHard:
		return 20
	}
	return 0
}

// arith accumulates arithmetic statements of one target.
type arith struct {
	target float64
	out    []Expression
}

func (a *arith) add(ops []Op, grouped int, vals ...float64) {
	terms := make([]Term, len(vals))
	for i, v := range vals {
		terms[i] = Term{Value: v}
	}
	a.out = append(a.out, Expression{
		Category: CategoryArithmetic,
		Terms:    terms,
		Ops:      ops,
		Grouped:  grouped,
		Value:    a.target,
	})
}

var (
	opsAdd       = []Op{OpAdd}
	opsSub       = []Op{OpSub}
	opsMul       = []Op{OpMul}
	opsDiv       = []Op{OpDiv}
	opsAddAdd    = []Op{OpAdd, OpAdd}
	opsAddSub    = []Op{OpAdd, OpSub}
	opsMulAdd    = []Op{OpMul, OpAdd}
	opsMulSub    = []Op{OpMul, OpSub}
	opsMulDiv    = []Op{OpMul, OpDiv}
	opsAddAddAdd = []Op{OpAdd, OpAdd, OpAdd}
	opsAddAddSub = []Op{OpAdd, OpAdd, OpSub}
	opsMulAddAdd = []Op{OpMul, OpAdd, OpAdd}
	opsMulAddSub = []Op{OpMul, OpAdd, OpSub}
	opsMulSubSub = []Op{OpMul, OpSub, OpSub}
	opsMulDivAdd = []Op{OpMul, OpDiv, OpAdd}
)

// arithmetic enumerates statements equal to target, in a fixed order.
// Decimal targets only get the two-term forms whose operands stay exact.
func arithmetic(target float64, mode ArithmeticMode, d Difficulty) []Expression {
	a := &arith{target: target}

	if mode.additive() {
		for x := 0; float64(x) <= target && x <= addSpan; x++ {
			if y, ok := decimal(target - float64(x)); ok {
				a.add(opsAdd, 0, float64(x), y)
			}
		}
	}
	if mode.subtractive() {
		for y := 0; y <= subSpan; y++ {
			if x, ok := decimal(target + float64(y)); ok {
				a.add(opsSub, 0, x, float64(y))
			}
		}
	}
	if mode.multiplicative() {
		for x := 1; x <= factorMax; x++ {
			if y, ok := integral(target / float64(x)); ok && y >= 1 && y <= factorMax {
				a.add(opsMul, 0, float64(x), y)
			}
		}
	}
	if mode.divisive() {
		for y := 1; y <= factorMax; y++ {
			if x, ok := integral(target * float64(y)); ok && x <= dividendMx {
				a.add(opsDiv, 0, x, float64(y))
			}
		}
	}

	t, whole := integral(target)
	n := operandMax(d)
	if !whole || n == 0 {
		return a.out
	}
	T := int(t)
	hard := d == DifficultyHard

	if mode.additive() {
		for x := 0; x <= n; x++ {
			for y := 0; y <= n; y++ {
				if z := T - x - y; z >= 0 && z <= n {
					a.add(opsAddAdd, 0, float64(x), float64(y), float64(z))
				}
			}
		}
		if hard {
			for x := 0; x <= n; x++ {
				for y := 0; y <= n; y++ {
					if z := x + y - T; z >= 0 && z <= n {
						a.add(opsAddSub, 0, float64(x), float64(y), float64(z))
					}
				}
			}
		}
	}
	if mode.multiplicative() {
		lim := max(tripleMax, min(factorMax, n))
		for x := 1; x <= lim; x++ {
			for y := 1; y <= lim; y++ {
				p := x * y
				if z := T - p; z >= 0 && z <= n {
					a.add(opsMulAdd, 0, float64(x), float64(y), float64(z))
				}
				if z := p - T; z >= 0 && z <= n {
					a.add(opsMulSub, 0, float64(x), float64(y), float64(z))
				}
			}
		}
		if hard {
			for x := 1; x <= tripleMax; x++ {
				for y := 1; y <= tripleMax; y++ {
					for z := 1; z <= tripleMax; z++ {
						if x*y%z == 0 && x*y/z == T {
							a.add(opsMulDiv, 2, float64(x), float64(y), float64(z))
						}
					}
				}
			}
		}
	}
	if !hard {
		return a.out
	}
	if mode.additive() {
		for x := 0; x <= n; x++ {
			for y := 0; y <= n; y++ {
				for z := 0; z <= n; z++ {
					if w := T - x - y - z; w >= 0 && w <= n {
						a.add(opsAddAddAdd, 0, float64(x), float64(y), float64(z), float64(w))
					}
				}
			}
		}
		for x := 0; x <= n; x++ {
			for y := 0; y <= n; y++ {
				for z := 0; z <= n; z++ {
					if w := x + y + z - T; w >= 0 && w <= n {
						a.add(opsAddAddSub, 0, float64(x), float64(y), float64(z), float64(w))
					}
				}
			}
		}
	}
	if mode.multiplicative() {
		for x := 1; x <= tripleMax; x++ {
			for y := 1; y <= tripleMax; y++ {
				p := x * y
				for z := 0; z <= n; z++ {
					if w := T - p - z; w >= 0 && w <= n {
						a.add(opsMulAddAdd, 0, float64(x), float64(y), float64(z), float64(w))
					}
					if w := p + z - T; w >= 0 && w <= n {
						a.add(opsMulAddSub, 0, float64(x), float64(y), float64(z), float64(w))
					}
					if w := p - z - T; w >= 0 && w <= n {
						a.add(opsMulSubSub, 0, float64(x), float64(y), float64(z), float64(w))
					}
				}
			}
		}
		for x := 1; x <= tripleMax; x++ {
			for y := 1; y <= tripleMax; y++ {
				for z := 1; z <= tripleMax; z++ {
					if x*y%z != 0 {
						continue
					}
					if w := T - x*y/z; w >= 0 && w <= n {
						a.add(opsMulDivAdd, 2, float64(x), float64(y), float64(z), float64(w))
					}
				}
			}
		}
	}
	return a.out
}
