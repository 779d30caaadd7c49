package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0"},
		{123, "123"},
		{-456, "-456"},
		{123.456, "123.456"},
		{0.000001, "0.000001"},
		{21500, "21500"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatFloat(tt.input))
	}
}

func TestFormatYear(t *testing.T) {
	assert.Equal(t, "2015", formatYear(2015))
	assert.Equal(t, "", formatYear(0))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "", formatTime(time.Time{}))

	pst := time.FixedZone("PST", -8*3600)
	assert.Equal(t, "2014-12-16T20:30:00Z", formatTime(time.Date(2014, 12, 16, 12, 30, 0, 0, pst)))
}
