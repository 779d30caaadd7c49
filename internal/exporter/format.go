package exporter

import (
	"strconv"
	"time"
)

// formatFloat formats a float64 with the fewest digits that round-trip.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatYear formats a model year, leaving unknown years empty.
func formatYear(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}

// formatTime formats a sale timestamp for CSV output.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
