package nn

import "errors"

var (
	// ErrInvalidConfig is returned by NewGCA for unusable channel counts or
	// dropout probabilities.
	ErrInvalidConfig = errors.New("invalid model configuration")

	// ErrDeviceMismatch is returned when a layer or the filter bank is not on
	// the model's placement.
	ErrDeviceMismatch = errors.New("device mismatch")
)
