package models

import "errors"

var (
	// ErrInvalidArgument marks malformed input: bad windows, thresholds or
	// mismatched series lengths.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidTicker is returned for symbols outside ^[A-Z0-9.-]{1,7}$.
	ErrInvalidTicker = errors.New("invalid ticker")
	// ErrNoData is returned when a source has no bars for the requested range.
	ErrNoData = errors.New("no data")
)
