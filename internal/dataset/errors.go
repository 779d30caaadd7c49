package dataset

import "errors"

var (
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("required column missing")
	// ErrNoHeader is returned for sources without a header row.
	ErrNoHeader = errors.New("no header row")
	// ErrUnsupportedFormat is returned for extensions other than .csv and .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	// ErrUnknownColumn is returned when a view asks for a column records do not carry.
	ErrUnknownColumn = errors.New("unknown column")
)
