package analysis

import (
	"fmt"

	"carsales/internal/dataset"
)

// Scatter holds one point per row: x is the chosen variable, y the price.
// The points are left out of JSON; the view's figure already carries them.
type Scatter struct {
	Variable ScatterVariable `json:"variable"`
	Title    string          `json:"title"`
	Points   int             `json:"points"`
	X        []float64       `json:"-"`
	Y        []float64       `json:"-"`
}

// PriceScatter plots selling price against odometer or condition. Every
// row contributes a point.
func PriceScatter(t *dataset.Table, variable ScatterVariable) (*Scatter, error) {
	var pick func(dataset.Record) float64
	switch variable {
	case VariableOdometer:
		pick = func(r dataset.Record) float64 { return r.Odometer }
	case VariableCondition:
		pick = func(r dataset.Record) float64 { return r.Condition }
	default:
		return nil, invalid("variable", variable)
	}

	s := &Scatter{
		Variable: variable,
		Title:    fmt.Sprintf("Selling price vs %s", variable),
		X:        make([]float64, 0, t.Len()),
		Y:        make([]float64, 0, t.Len()),
	}
	t.Each(func(r dataset.Record) bool {
		s.X = append(s.X, pick(r))
		s.Y = append(s.Y, r.SellingPrice)
		return true
	})
	s.Points = len(s.X)
	return s, nil
}

// Len returns the number of points.
func (s *Scatter) Len() int { return len(s.X) }

// Columns implements Tabular.
func (s *Scatter) Columns() []string {
	return []string{string(s.Variable), "sellingprice"}
}

// Values implements Tabular.
func (s *Scatter) Values() [][]string {
	out := make([][]string, len(s.X))
	for i := range s.X {
		out[i] = []string{formatFloat(s.X[i]), formatFloat(s.Y[i])}
	}
	return out
}
