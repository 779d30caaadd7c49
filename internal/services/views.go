package services

import (
	"fmt"
	"net/url"
	"strings"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"

	"carsales/internal/analysis"
	"carsales/internal/dataset"
)

// ViewName identifies one descriptive view of the dashboard.
type ViewName string

const (
	ViewCategories ViewName = "categories"
	ViewModels     ViewName = "models"
	ViewStates     ViewName = "states"
	ViewScatter    ViewName = "scatter"
	ViewTrend      ViewName = "trend"
)

// Views lists the descriptive views in page order.
var Views = []ViewName{ViewCategories, ViewModels, ViewStates, ViewScatter, ViewTrend}

// ParseViewName checks s against the known views.
func ParseViewName(s string) (ViewName, error) {
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Params carries the control values of one view. Fields a view does not use
// are ignored; empty fields take the view's default.
type Params struct {
	Column    string `json:"column,omitempty"`
	Direction string `json:"direction,omitempty"`
	Make      string `json:"make,omitempty"`
	Model     string `json:"model,omitempty"`
	Metric    string `json:"metric,omitempty"`
	Variable  string `json:"variable,omitempty"`
}

// ParamsFromValues reads view parameters from a query string.
func ParamsFromValues(v url.Values) Params {
	return Params{
		Column:    v.Get("column"),
		Direction: v.Get("direction"),
		Make:      v.Get("make"),
		Model:     v.Get("model"),
		Metric:    v.Get("metric"),
		Variable:  v.Get("variable"),
	}.Trimmed()
}

// Trimmed strips surrounding whitespace from every field.
func (p Params) Trimmed() Params {
	for _, f := range []*string{&p.Column, &p.Direction, &p.Make, &p.Model, &p.Metric, &p.Variable} {
		*f = strings.TrimSpace(*f)
	}
	return p
}

// normalise lower-cases the make and model so they match the cleaned table.
func (p Params) normalise() Params {
	p.Make = strings.ToLower(p.Make)
	p.Model = strings.ToLower(p.Model)
	return p
}

// defaultParams is the initial selection of each view. The model ranking
// starts on the first make of the table.
func defaultParams(view ViewName, t *dataset.Table) Params {
	switch view {
	case ViewCategories:
		return Params{Column: string(dataset.ColumnMake), Direction: string(analysis.Top)}
	case ViewModels:
		p := Params{Metric: string(analysis.MetricCount)}
		if makes := t.Makes(); len(makes) > 0 {
			p.Make = makes[0]
		}
		return p
	case ViewStates:
		return Params{Make: analysis.All, Model: analysis.All}
	case ViewScatter:
		return Params{Variable: string(analysis.VariableOdometer)}
	case ViewTrend:
		return Params{Metric: string(analysis.TrendAvgPrice)}
	}
	return Params{}
}

// withDefaults fills the fields view uses that p leaves empty.
func (p Params) withDefaults(view ViewName, t *dataset.Table) Params {
	d := defaultParams(view, t)
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&p.Column, d.Column)
	fill(&p.Direction, d.Direction)
	fill(&p.Make, d.Make)
	fill(&p.Model, d.Model)
	fill(&p.Metric, d.Metric)
	fill(&p.Variable, d.Variable)
	return p
}

// View is a computed view: its table data and the chart that renders it.
type View struct {
	View   ViewName         `json:"view"`
	Title  string           `json:"title"`
	Params Params           `json:"params"`
	Data   analysis.Tabular `json:"data"`
	Figure *grob.Fig        `json:"figure"`
}
