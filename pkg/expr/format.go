package expr

import (
	"github.com/matzehuels/coloriage/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MaxFractionDigits bounds the decimals of any rendered number. Targets are
// validated against the same bound.
const MaxFractionDigits = errors.TargetDecimals

// Formatter renders numbers for one locale, without digit grouping.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter creates a formatter for tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

// ParseFormatter creates a formatter from a BCP 47 locale name such as "fr"
// or "en-GB".
func ParseFormatter(locale string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, err
	}
	return NewFormatter(tag), nil
}

var defaultFormatter = NewFormatter(language.French)

// DefaultFormatter renders French numbers ("2,5").
func DefaultFormatter() *Formatter { return defaultFormatter }

// Locale returns the formatter's language tag.
func (f *Formatter) Locale() language.Tag { return f.tag }

// Number renders v with at most MaxFractionDigits decimals and no trailing
// zeros.
func (f *Formatter) Number(v float64) string {
	return f.printer.Sprint(number.Decimal(v,
		number.MaxFractionDigits(MaxFractionDigits),
		number.NoSeparator(),
	))
}
