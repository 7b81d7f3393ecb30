package source

import "errors"

// Sentinel kinds for acquisition errors.
var (
	ErrNoCompetitors  = errors.New("no competitors in input")
	ErrBlankName      = errors.New("blank competitor name")
	ErrDuplicateName  = errors.New("duplicate competitor name")
	ErrRaggedRow      = errors.New("row has wrong number of values")
	ErrBadNumber      = errors.New("value is not a finite number")
	ErrMissingHeader  = errors.New("missing or malformed header row")
	ErrBatchTooLarge  = errors.New("competitor batch exceeds limit")
	ErrNoEvents       = errors.New("competitor has no events")
)
