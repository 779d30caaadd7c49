package dataset

import (
	"fmt"
	"strconv"
	"time"
)

// Unknown replaces missing categorical values before normalisation.
const Unknown = "Unknown"

// Record is one cleaned sale.
type Record struct {
	Make         string
	Model        string
	Trim         string
	Body         string
	Transmission string
	Color        string
	Interior     string
	State        string

	Year         int
	Odometer     float64
	Condition    float64
	SellingPrice float64
	MMR          float64
	// MMRMissing marks rows whose source had no mmr. MMR is 0 for them and
	// must not be averaged.
	MMRMissing bool

	SaleDate time.Time
}

// Column names a categorical field that views may group by.
type Column string

const (
	ColumnMake         Column = "make"
	ColumnModel        Column = "model"
	ColumnTrim         Column = "trim"
	ColumnBody         Column = "body"
	ColumnTransmission Column = "transmission"
	ColumnState        Column = "state"
	ColumnColor        Column = "color"
	ColumnInterior     Column = "interior"
	ColumnYear         Column = "year"
)

// Label returns the value of col for r as a display string. Year 0 means the
// source had no year and is labelled Unknown; rankings skip such rows.
func (r Record) Label(col Column) (string, error) {
	switch col {
	case ColumnMake:
		return r.Make, nil
	case ColumnModel:
		return r.Model, nil
	case ColumnTrim:
		return r.Trim, nil
	case ColumnBody:
		return r.Body, nil
	case ColumnTransmission:
		return r.Transmission, nil
	case ColumnState:
		return r.State, nil
	case ColumnColor:
		return r.Color, nil
	case ColumnInterior:
		return r.Interior, nil
	case ColumnYear:
		if r.Year == 0 {
			return Unknown, nil
		}
		return strconv.Itoa(r.Year), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, col)
}

// RawRecord is a source row before cleaning. Nil numeric or date fields
// are missing in the source; empty strings are missing categoricals.
type RawRecord struct {
	Make         string
	Model        string
	Trim         string
	Body         string
	Transmission string
	Color        string
	Interior     string
	State        string

	Year         *int
	Odometer     *float64
	Condition    *float64
	SellingPrice *float64
	MMR          *float64

	SaleDate *time.Time
}
