package strategy

import "errors"

// ErrUnknownStrategy indicates that a strategy name is not recognized.
var ErrUnknownStrategy = errors.New("unknown layout strategy")

// ErrInvalidFallbackOrder indicates a fallback order with unknown or repeated zones.
var ErrInvalidFallbackOrder = errors.New("invalid zone fallback order")
