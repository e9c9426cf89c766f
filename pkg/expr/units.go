package expr

import (
	"math"
)

// Units of every supported family.
const (
	Millimetre Unit = "mm"
	Centimetre Unit = "cm"
	Metre      Unit = "m"
	Kilometre  Unit = "km"

	Millilitre Unit = "mL"
	Centilitre Unit = "cL"
	Litre      Unit = "L"

	Milligram Unit = "mg"
	Gram      Unit = "g"
	Kilogram  Unit = "kg"

	Second Unit = "s"
	Minute Unit = "min"
	Hour   Unit = "h"
	Day    Unit = "j"
)

// maxComponent is the largest number stated in a conversion.
const maxComponent = 1_000_000

// scaledUnit is a unit and its size in the family's smallest unit.
type scaledUnit struct {
	unit   Unit
	factor int64
}

// Family is a ladder of commensurable units, smallest first.
type Family struct {
	Name  string
	units []scaledUnit
}

// The unit families.
var (
	Length = Family{Name: "length", units: []scaledUnit{
		{Millimetre, 1}, {Centimetre, 10}, {Metre, 1000}, {Kilometre, 1_000_000},
	}}
	Volume = Family{Name: "volume", units: []scaledUnit{
		{Millilitre, 1}, {Centilitre, 10}, {Litre, 1000},
	}}
	Mass = Family{Name: "mass", units: []scaledUnit{
		{Milligram, 1}, {Gram, 1000}, {Kilogram, 1_000_000},
	}}
	Time = Family{Name: "time", units: []scaledUnit{
		{Second, 1}, {Minute, 60}, {Hour, 3600}, {Day, 86400},
	}}
)

// measureFamilies are the unit-conversion buckets, each answered in its
// base unit.
var measureFamilies = []struct {
	family Family
	answer Unit
}{
	{Length, Metre},
	{Volume, Litre},
	{Mass, Gram},
}

// timeAnswers are the time-conversion buckets.
var timeAnswers = []Unit{Second, Minute, Hour, Day}

// Units lists the family's units, smallest first.
func (f Family) Units() []Unit {
	out := make([]Unit, len(f.units))
	for i, u := range f.units {
		out[i] = u.unit
	}
	return out
}

func (f Family) factor(u Unit) (int64, bool) {
	for _, su := range f.units {
		if su.unit == u {
			return su.factor, true
		}
	}
	return 0, false
}

func familyOf(u *Unknown) (Family, bool) {
	if u == nil {
		return Family{}, false
	}
	for _, f := range []Family{Length, Volume, Mass, Time} {
		if _, ok := f.factor(u.Unit); ok {
			return f, true
		}
	}
	return Family{}, false
}

// conversions enumerates statements of target (expressed in answer) using
// the other units of fam. Single components come first, largest unit first,
// then canonical multi-component decompositions.
//
// Every stated component is non-zero, below maxComponent and exactly
// representable with MaxFractionDigits decimals. Decompositions never carry:
// each component after the first is smaller than one of the unit before it.
func conversions(target float64, fam Family, answer Unit, cat Category, d Difficulty) []Expression {
	af, ok := fam.factor(answer)
	if !ok {
		return nil
	}
	total := target * float64(af)

	var others []scaledUnit
	for i := len(fam.units) - 1; i >= 0; i-- {
		if fam.units[i].unit != answer {
			others = append(others, fam.units[i])
		}
	}

	mk := func(terms []Term) Expression {
		return Expression{Category: cat, Terms: terms, Unknown: &Unknown{Unit: answer}, Value: target}
	}

	var out []Expression
	for _, su := range others {
		v := total / float64(su.factor)
		if v <= 0 || v > maxComponent {
			continue
		}
		if n, ok := integral(v); ok {
			out = append(out, mk([]Term{{Value: n, Unit: su.unit}}))
			continue
		}
		if d.level() >= 1 {
			if dv, ok := decimal(v); ok && dv != 0 {
				out = append(out, mk([]Term{{Value: dv, Unit: su.unit}}))
			}
		}
	}

	whole, ok := integral(total)
	if !ok || d.level() < 1 {
		return out
	}
	maxParts := 2
	if d.level() >= 2 {
		maxParts = 3
	}
	for parts := 2; parts <= maxParts; parts++ {
		for _, combo := range combinations(len(others), parts) {
			if terms, ok := decompose(int64(whole), others, combo); ok {
				out = append(out, mk(terms))
			}
		}
	}
	return out
}

// decompose writes total as a mixed-radix sum over the chosen units, largest
// first. It fails when a component would be zero or too large, or when a
// remainder is left below the smallest chosen unit.
func decompose(total int64, units []scaledUnit, combo []int) ([]Term, bool) {
	rem := total
	terms := make([]Term, 0, len(combo))
	for _, i := range combo {
		su := units[i]
		q := rem / su.factor
		if q < 1 || q > maxComponent {
			return nil, false
		}
		rem -= q * su.factor
		terms = append(terms, Term{Value: float64(q), Unit: su.unit})
	}
	return terms, rem == 0
}

// combinations lists the k-element index subsets of [0, n) in lexicographic
// order.
func combinations(n, k int) [][]int {
	var out [][]int
	cur := make([]int, 0, k)
	var rec func(start int)
	rec = func(start int) {
		if len(cur) == k {
			out = append(out, append([]int(nil), cur...))
			return
		}
		for i := start; i < n; i++ {
			cur = append(cur, i)
			rec(i + 1)
			cur = cur[:len(cur)-1]
		}
	}
	rec(0)
	return out
}

// integral reports whether v is a whole number, tolerating float noise.
func integral(v float64) (float64, bool) {
	n := math.Round(v)
	return n, math.Abs(v-n) <= 1e-9*math.Max(1, math.Abs(v))
}

// decimal reports whether v has at most MaxFractionDigits decimals and
// returns it snapped to that grid.
func decimal(v float64) (float64, bool) {
	scale := math.Pow10(MaxFractionDigits)
	n, ok := integral(v * scale)
	if !ok {
		return 0, false
	}
	return n / scale, true
}
