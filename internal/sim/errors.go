package sim

import "errors"

// Engine operations return these to explain why a call had no effect. None
// of them leave engine state modified.
var (
	ErrDuplicateOrder    = errors.New("Duplicate order id")
	ErrInvalidOrder      = errors.New("Invalid order")
	ErrInvalidTransition = errors.New("Invalid order status transition")
	ErrMissionActive     = errors.New("Another mission is already active")
	ErrNoActiveMission   = errors.New("No active mission")
	ErrOrderNotFound     = errors.New("No matching order")
	ErrUnknownLocation   = errors.New("Unknown location")
)
