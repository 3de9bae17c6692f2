package houses

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedSystem = errors.New("unsupported house system")
	ErrMissingParameter  = errors.New("missing parameter")

	// errDegenerateGeometry never leaves the package: latitude-sensitive
	// subdivisions that hit it fall back to Porphyry.
	errDegenerateGeometry = errors.New("degenerate house geometry")
)
