package analysis

import (
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"carsales/internal/dataset"
)

// TrendRow is one model year's aggregate.
type TrendRow struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Trend is the price or volume evolution across model years.
type Trend struct {
	Metric TrendMetric `json:"metric"`
	Title  string      `json:"title"`
	YLabel string      `json:"y_label"`
	Rows   []TrendRow  `json:"rows"`
}

// YearTrend groups rows by model year, ascending. Rows without a year are
// left out.
func YearTrend(t *dataset.Table, metric TrendMetric) (*Trend, error) {
	if !oneOf(metric, TrendMetrics) {
		return nil, invalid("metric", metric)
	}

	groups := make(map[int][]float64)
	t.Each(func(r dataset.Record) bool {
		if r.Year != 0 {
			groups[r.Year] = append(groups[r.Year], r.SellingPrice)
		}
		return true
	})

	rows := make([]TrendRow, 0, len(groups))
	for year, prices := range groups {
		row := TrendRow{Year: year, Value: float64(len(prices))}
		if metric == TrendAvgPrice {
			row.Value = stat.Mean(prices, nil)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })

	trend := &Trend{Metric: metric, Rows: rows}
	if metric == TrendAvgPrice {
		trend.Title = "Average selling price by model year"
		trend.YLabel = "Average price"
	} else {
		trend.Title = "Number of sales by model year"
		trend.YLabel = "Sales"
	}
	return trend, nil
}

// Columns implements Tabular.
func (tr *Trend) Columns() []string {
	return []string{"year", string(tr.Metric)}
}

// Values implements Tabular.
func (tr *Trend) Values() [][]string {
	out := make([][]string, len(tr.Rows))
	for i, r := range tr.Rows {
		out[i] = []string{strconv.Itoa(r.Year), formatFloat(r.Value)}
	}
	return out
}
