package analysis

import (
	"errors"
	"fmt"

	"carsales/internal/dataset"
)

var (
	// ErrInvalidSelection is returned for a control value outside its option set.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrUnknownMake is returned when a make does not occur in the table.
	ErrUnknownMake = errors.New("unknown make")
	// ErrUnknownModel is returned when a model does not occur under the selected make.
	ErrUnknownModel = errors.New("unknown model")
)

// All selects every make or model in the map filters.
const All = "all"

// TopN is the size of every ranking.
const TopN = 10

// CategoryColumns are the columns the category ranking may group by.
var CategoryColumns = []dataset.Column{
	dataset.ColumnMake,
	dataset.ColumnYear,
	dataset.ColumnBody,
	dataset.ColumnTransmission,
	dataset.ColumnState,
	dataset.ColumnColor,
	dataset.ColumnInterior,
}

// Direction selects the top or bottom of a ranking.
type Direction string

const (
	Top    Direction = "top"
	Bottom Direction = "bottom"
)

// Directions lists the ranking directions.
var Directions = []Direction{Top, Bottom}

// ModelMetric selects the per-make model aggregation.
type ModelMetric string

const (
	MetricCount         ModelMetric = "count"
	MetricAvgPrice      ModelMetric = "avg_price"
	MetricAvgMMR        ModelMetric = "avg_mmr"
	MetricPriceMMRRatio ModelMetric = "price_mmr_ratio"
)

// ModelMetrics lists the model ranking metrics.
var ModelMetrics = []ModelMetric{MetricCount, MetricAvgPrice, MetricAvgMMR, MetricPriceMMRRatio}

// ScatterVariable selects the x axis of the price scatter.
type ScatterVariable string

const (
	VariableOdometer  ScatterVariable = "odometer"
	VariableCondition ScatterVariable = "condition"
)

// ScatterVariables lists the scatter variables.
var ScatterVariables = []ScatterVariable{VariableOdometer, VariableCondition}

// TrendMetric selects the year trend aggregation.
type TrendMetric string

const (
	TrendAvgPrice TrendMetric = "avg_price"
	TrendCount    TrendMetric = "count"
)

// TrendMetrics lists the year trend metrics.
var TrendMetrics = []TrendMetric{TrendAvgPrice, TrendCount}

func oneOf[T comparable](v T, options []T) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func invalid(field string, value any) error {
	return fmt.Errorf("%w: %s=%v", ErrInvalidSelection, field, value)
}
