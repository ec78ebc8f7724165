package classify

import "github.com/rotisserie/eris"

var (
	// ErrInvalidArgument is returned for a class count below one, a Custom
	// classification request, or malformed caller-supplied breaks.
	ErrInvalidArgument = eris.New("classify: invalid argument")

	// ErrDegenerateInput marks samples with fewer distinct values than
	// requested classes. It is informational: Classify recovers by reducing
	// the class count and reports it on Result.Degenerate.
	ErrDegenerateInput = eris.New("classify: degenerate input")
)
