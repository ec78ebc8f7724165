package symbology

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/classify"
)

var (
	// ErrInvalidArgument is shared with the classifier so callers can match a
	// single sentinel across both layers.
	ErrInvalidArgument = classify.ErrInvalidArgument

	// ErrOutOfRange is returned by index-based operations given an index
	// outside the range list.
	ErrOutOfRange = eris.New("symbology: index out of range")
)
