package expr

import (
	"math/rand/v2"

	"github.com/matzehuels/coloriage/pkg/errors"
)

// Default bucket weights.
var (
	// DefaultUnitWeights balances length, volume and mass.
	DefaultUnitWeights = []float64{33, 34, 33}
	// DefaultTimeWeights balances answers in s, min, h and j.
	DefaultTimeWeights = []float64{1, 1, 1, 1}
)

// Options configures generation.
type Options struct {
	Category   Category
	Difficulty Difficulty
	// Mode selects arithmetic operators. Empty means ModeAddSub.
	Mode ArithmeticMode
	// Seed drives the arithmetic shuffle. It is independent of any other
	// random stream in the program.
	Seed uint64
	// UnitWeights orders unit conversions by family: length, volume, mass.
	UnitWeights []float64
	// TimeWeights orders time conversions by answer unit: s, min, h, j.
	TimeWeights []float64
	// Formatter renders numbers for deduplication. Nil means French.
	Formatter *Formatter
}

// ParseCategory parses a category name.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryArithmetic, CategoryUnit, CategoryTime:
		return c, nil
	case "":
		return CategoryArithmetic, nil
	}
	return "", errors.New(errors.ErrCodeInvalidCategory, "unknown category %q (want arithmetic, unit or time)", s)
}

// ParseDifficulty parses a difficulty name.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	case "":
		return DifficultyEasy, nil
	}
	return "", errors.New(errors.ErrCodeInvalidDifficulty, "unknown difficulty %q (want easy, medium or hard)", s)
}

// Generate lists statements whose value is target. The list is never empty:
// when no statement can be built a single fallback is returned. Rendered
// forms are unique.
//
// Arithmetic statements are shuffled with a generator seeded from
// opts.Seed. Conversions are interleaved across their buckets by weight.
func Generate(target float64, opts Options) ([]Expression, error) {
	if err := errors.ValidateTarget(target); err != nil {
		return nil, err
	}
	cat, err := ParseCategory(string(opts.Category))
	if err != nil {
		return nil, err
	}
	diff, err := ParseDifficulty(string(opts.Difficulty))
	if err != nil {
		return nil, err
	}
	f := opts.Formatter
	if f == nil {
		f = DefaultFormatter()
	}

	var list []Expression
	switch cat {
	case CategoryArithmetic:
		mode, err := ParseArithmeticMode(string(opts.Mode))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "arithmetic mode")
		}
		list = dedupe(arithmetic(target, mode, diff), f)
		shuffle(list, opts.Seed)
		if len(list) == 0 {
			list = []Expression{arithmeticFallback(target, mode)}
		}

	case CategoryUnit:
		buckets := make([][]Expression, len(measureFamilies))
		for i, mf := range measureFamilies {
			buckets[i] = conversions(target, mf.family, mf.answer, cat, diff)
		}
		list = dedupe(Interleave(buckets, weightsOr(opts.UnitWeights, DefaultUnitWeights)), f)
		if len(list) == 0 {
			list = []Expression{unitFallback(target)}
		}

	case CategoryTime:
		buckets := make([][]Expression, len(timeAnswers))
		for i, u := range timeAnswers {
			buckets[i] = conversions(target, Time, u, cat, diff)
		}
		list = dedupe(Interleave(buckets, weightsOr(opts.TimeWeights, DefaultTimeWeights)), f)
		if len(list) == 0 {
			list = []Expression{timeFallback(target)}
		}
	}
	return list, nil
}

// Pick chooses the statement shown in the rectangle at (x, y) painted with
// colorID, so that neighbouring rectangles of one color vary.
func Pick(list []Expression, x, y, colorID int) (Expression, bool) {
	if len(list) == 0 {
		return Expression{}, false
	}
	i := (x + y + colorID) % len(list)
	if i < 0 {
		i += len(list)
	}
	return list[i], true
}

func weightsOr(w, def []float64) []float64 {
	if len(w) == 0 {
		return def
	}
	return w
}

// dedupe keeps the first expression of every rendered form.
func dedupe(list []Expression, f *Formatter) []Expression {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, e := range list {
		s := e.Render(f)
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, e)
	}
	return out
}

// shuffle is a seeded Fisher-Yates shuffle.
func shuffle(list []Expression, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed5eed))
	rng.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
}

// arithmeticFallback keeps the mode's operator family.
func arithmeticFallback(target float64, mode ArithmeticMode) Expression {
	e := Expression{Category: CategoryArithmetic, Value: target}
	if mode.additive() && target > 1 {
		e.Terms = []Term{{Value: target - 1}, {Value: 1}}
		e.Ops = []Op{OpAdd}
		return e
	}
	e.Terms = []Term{{Value: target}, {Value: 1}}
	e.Ops = []Op{OpMul}
	return e
}

func unitFallback(target float64) Expression {
	return Expression{
		Category: CategoryUnit,
		Terms:    []Term{{Value: target * 100, Unit: Centimetre}},
		Unknown:  &Unknown{Unit: Metre},
		Value:    target,
	}
}

func timeFallback(target float64) Expression {
	return Expression{
		Category: CategoryTime,
		Terms:    []Term{{Value: target * 60, Unit: Second}},
		Unknown:  &Unknown{Unit: Minute},
		Value:    target,
	}
}
