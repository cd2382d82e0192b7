package engine

import "errors"

var (
	// ErrInvalidInput is returned by New when parts or settings cannot be nested.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSearchFault signals a broken search invariant, such as an empty
	// population or score list.
	ErrSearchFault = errors.New("search fault")

	// ErrLayoutBuild is returned when a solution cannot be turned into a
	// sheet layout.
	ErrLayoutBuild = errors.New("layout build failed")

	// ErrRunInProgress is returned when Run is called while another run on
	// the same Nester has not finished.
	ErrRunInProgress = errors.New("run already in progress")
)
