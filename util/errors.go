package util

import "errors"

// Registry errors returned by the endpoint layer's allocation helpers.
var (
	ErrPropertyNotFound = errors.New("property_not_found")
	ErrUnitNotFound     = errors.New("unit_not_found")
	ErrUnitNumberTaken  = errors.New("unit_number_taken")
	ErrFloorFull        = errors.New("floor_full")
	ErrSequenceBusy     = errors.New("sequence_busy")
	ErrInvalidUnitCode  = errors.New("invalid_unit_code")
)
