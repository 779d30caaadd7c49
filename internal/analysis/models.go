package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"carsales/internal/dataset"
)

// ModelRow is one model's aggregate within a make.
type ModelRow struct {
	Model string  `json:"model"`
	Value float64 `json:"value"`
	// Sales is the number of rows that contributed to Value.
	Sales int `json:"sales"`
}

// ModelRanking is the top models of one make by a metric.
type ModelRanking struct {
	Make   string      `json:"make"`
	Metric ModelMetric `json:"metric"`
	Title  string      `json:"title"`
	Rows   []ModelRow  `json:"rows"`
}

// projection maps a record to the value aggregated by a metric. ok=false
// excludes the record.
type projection func(r dataset.Record) (v float64, ok bool)

func projectionFor(metric ModelMetric) projection {
	switch metric {
	case MetricAvgPrice:
		return func(r dataset.Record) (float64, bool) { return r.SellingPrice, true }
	case MetricAvgMMR:
		return func(r dataset.Record) (float64, bool) { return r.MMR, !r.MMRMissing }
	case MetricPriceMMRRatio:
		return priceMMRRatio
	}
	return func(dataset.Record) (float64, bool) { return 1, true }
}

// priceMMRRatio is sellingprice/mmr for rows with a positive mmr.
func priceMMRRatio(r dataset.Record) (float64, bool) {
	if r.MMRMissing || r.MMR <= 0 {
		return 0, false
	}
	return r.SellingPrice / r.MMR, true
}

// RankModels groups the rows of makeName by model and returns the ten
// models with the highest metric, descending. Rows the metric cannot use
// (missing or non-positive mmr) are skipped, and a model left with no rows
// is not ranked.
func RankModels(t *dataset.Table, makeName string, metric ModelMetric) (*ModelRanking, error) {
	if !oneOf(metric, ModelMetrics) {
		return nil, invalid("metric", metric)
	}
	if !t.HasMake(makeName) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMake, makeName)
	}

	project := projectionFor(metric)
	groups := make(map[string][]float64)
	t.Each(func(r dataset.Record) bool {
		if r.Make != makeName {
			return true
		}
		if v, ok := project(r); ok {
			groups[r.Model] = append(groups[r.Model], v)
		}
		return true
	})

	rows := make([]ModelRow, 0, len(groups))
	for model, values := range groups {
		row := ModelRow{Model: model, Sales: len(values)}
		if metric == MetricCount {
			row.Value = float64(len(values))
		} else {
			row.Value = stat.Mean(values, nil)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Model < rows[j].Model
	})
	if len(rows) > TopN {
		rows = rows[:TopN]
	}

	return &ModelRanking{
		Make:   makeName,
		Metric: metric,
		Title:  ModelTitle(makeName, metric),
		Rows:   rows,
	}, nil
}

// ModelTitle is the chart title of a model ranking.
func ModelTitle(makeName string, metric ModelMetric) string {
	suffix := "sales"
	switch metric {
	case MetricAvgPrice:
		suffix = "average price"
	case MetricAvgMMR:
		suffix = "average MMR"
	case MetricPriceMMRRatio:
		suffix = "price/MMR ratio"
	}
	return fmt.Sprintf("Top %d %s models by %s", TopN, makeName, suffix)
}

// Columns implements Tabular.
func (m *ModelRanking) Columns() []string {
	return []string{"model", string(m.Metric), "sales"}
}

// Values implements Tabular.
func (m *ModelRanking) Values() [][]string {
	out := make([][]string, len(m.Rows))
	for i, r := range m.Rows {
		out[i] = []string{r.Model, formatFloat(r.Value), strconv.Itoa(r.Sales)}
	}
	return out
}
