package physics

import "errors"

var (
	ErrEmpty          = errors.New("physics: store needs at least one body")
	ErrLengthMismatch = errors.New("physics: positions, velocities, masses and radii differ in length")
	ErrInvalidMass    = errors.New("physics: mass must be a non-negative number")
	ErrNoBodies       = errors.New("physics: body count must be positive")
	ErrInvalidConfig  = errors.New("physics: invalid integrator config")
)
