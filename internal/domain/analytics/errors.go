package analytics

import "errors"

// Sentinel kinds for aggregation errors. Empty data is never an error.
var (
	ErrAggregation   = errors.New("aggregation failed")
	ErrInvalidWindow = errors.New("invalid window")
	ErrInvalidLimit  = errors.New("invalid limit")
)
