package symbology

import (
	"strings"

	"github.com/rotisserie/eris"
)

// GraduatedMethod decides whether classes differ by color or by size.
type GraduatedMethod int

// Graduation methods.
const (
	GraduatedColor GraduatedMethod = iota
	GraduatedSize
)

// String returns the config/wire name ("color" or "size").
func (m GraduatedMethod) String() string {
	if m == GraduatedSize {
		return "size"
	}
	return "color"
}

// DisplayName returns a human readable name.
func (m GraduatedMethod) DisplayName() string {
	if m == GraduatedSize {
		return "Graduated size"
	}
	return "Graduated color"
}

// ParseGraduatedMethod maps "color" or "size" to a GraduatedMethod.
func ParseGraduatedMethod(s string) (GraduatedMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "color", "colour", "graduatedcolor":
		return GraduatedColor, nil
	case "size", "graduatedsize":
		return GraduatedSize, nil
	}
	return GraduatedColor, eris.Wrapf(ErrInvalidArgument, "symbology: unknown graduated method %q", s)
}
