package classify

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Mode selects the classification strategy.
type Mode int

// Classification modes.
const (
	EqualInterval Mode = iota
	Quantile
	Jenks
	StdDev
	Pretty
	Custom
)

var modeNames = [...]string{
	EqualInterval: "equal_interval",
	Quantile:      "quantile",
	Jenks:         "jenks",
	StdDev:        "stddev",
	Pretty:        "pretty",
	Custom:        "custom",
}

// Modes lists every mode in declaration order.
func Modes() []Mode {
	return []Mode{EqualInterval, Quantile, Jenks, StdDev, Pretty, Custom}
}

// String returns the config/wire name of the mode.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "custom"
	}
	return modeNames[m]
}

// ParseMode maps a mode name (case-insensitive, "-" or "_" separated) to a Mode.
func ParseMode(s string) (Mode, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch norm {
	case "equal", "equalinterval":
		return EqualInterval, nil
	case "natural_breaks", "naturalbreaks":
		return Jenks, nil
	case "std_dev", "standard_deviation":
		return StdDev, nil
	}
	for i, name := range modeNames {
		if name == norm {
			return Mode(i), nil
		}
	}
	return Custom, eris.Wrapf(ErrInvalidArgument, "classify: unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
