package symbology

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Label precision bounds and defaults.
const (
	MinPrecision       = -6
	MaxPrecision       = 15
	DefaultPrecision   = 4
	DefaultLabelFormat = "%1 - %2"
)

var (
	reNegativeZero = regexp.MustCompile(`^-0(?:[.,]0*)?$`)
	rePlaceholder  = regexp.MustCompile(`%(\d)`)
)

// LabelFormat renders range bounds into labels. The template substitutes %1
// with the lower and %2 with the upper bound. A negative precision rounds
// to tens, hundreds, ... and keeps the dropped digits as a zero suffix.
type LabelFormat struct {
	format    string
	precision int
	trim      bool
}

// DefaultFormat returns "%1 - %2" at precision 4 without trimming.
func DefaultFormat() LabelFormat {
	return LabelFormat{format: DefaultLabelFormat, precision: DefaultPrecision}
}

// NewLabelFormat validates the template and clamps precision into
// [MinPrecision, MaxPrecision].
func NewLabelFormat(format string, precision int, trimTrailingZeroes bool) (LabelFormat, error) {
	f := LabelFormat{trim: trimTrailingZeroes}
	if err := f.SetFormat(format); err != nil {
		return LabelFormat{}, err
	}
	f.SetPrecision(precision)
	return f, nil
}

// Format returns the template.
func (f LabelFormat) Format() string { return f.format }

// SetFormat replaces the template. Empty templates and placeholders other
// than %1 and %2 are rejected.
func (f *LabelFormat) SetFormat(format string) error {
	if format == "" {
		return eris.Wrap(ErrInvalidArgument, "symbology: empty label format")
	}
	for _, m := range rePlaceholder.FindAllStringSubmatch(format, -1) {
		if m[1] != "1" && m[1] != "2" {
			return eris.Wrapf(ErrInvalidArgument, "symbology: unsupported placeholder %%%s in %q", m[1], format)
		}
	}
	f.format = format
	return nil
}

// Precision returns the number of decimals.
func (f LabelFormat) Precision() int { return f.precision }

// SetPrecision clamps p into [MinPrecision, MaxPrecision].
func (f *LabelFormat) SetPrecision(p int) {
	f.precision = max(MinPrecision, min(p, MaxPrecision))
}

// TrimTrailingZeroes reports whether trailing decimal zeros are stripped.
func (f LabelFormat) TrimTrailingZeroes() bool { return f.trim }

// SetTrimTrailingZeroes toggles trailing zero trimming.
func (f *LabelFormat) SetTrimTrailingZeroes(trim bool) { f.trim = trim }

// Scale is the factor applied before rounding: 10^precision for negative
// precision, 1 otherwise.
func (f LabelFormat) Scale() float64 {
	if f.precision >= 0 {
		return 1
	}
	return math.Pow10(f.precision)
}

// Suffix is the zero string appended to scaled numbers.
func (f LabelFormat) Suffix() string {
	if f.precision >= 0 {
		return ""
	}
	return strings.Repeat("0", -f.precision)
}

// Equal reports whether both formats render identically.
func (f LabelFormat) Equal(other LabelFormat) bool {
	return f == other
}

// LabelForRange renders the template for the given bounds.
func (f LabelFormat) LabelForRange(lower, upper float64) string {
	return strings.NewReplacer("%1", f.FormatNumber(lower), "%2", f.FormatNumber(upper)).Replace(f.format)
}

// LabelFor renders the template for r's bounds.
func (f LabelFormat) LabelFor(r Range) string {
	return f.LabelForRange(r.lower, r.upper)
}

// FormatNumber rounds v to the configured precision. Negative zero results
// such as "-0.00" are normalized to "0.00".
func (f LabelFormat) FormatNumber(v float64) string {
	if f.precision > 0 {
		s := strconv.FormatFloat(v, 'f', f.precision, 64)
		if f.trim {
			s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
		}
		if reNegativeZero.MatchString(s) {
			s = s[1:]
		}
		return s
	}

	s := strconv.FormatFloat(v*f.Scale(), 'f', 0, 64)
	if s == "-0" {
		s = "0"
	}
	if s != "0" {
		s += f.Suffix()
	}
	return s
}
