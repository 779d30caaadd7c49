// Package charts turns analysis results into plotly figures. Figures are
// served as JSON to the dashboard page and written as standalone HTML by
// the exporters.
package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/MetalBlueberry/go-plotly/offline"

	"carsales/internal/analysis"
)

// Height of every dashboard chart in pixels.
const Height = 500

// Continuous colour scales.
const (
	ScaleBlues   = "Blues"
	ScaleViridis = "Viridis"
)

// Qualitative palettes for bars, one colour per bar.
var (
	Pastel1 = []string{"#fbb4ae", "#b3cde3", "#ccebc5", "#decbe4", "#fed9a6", "#ffffcc", "#e5d8bd", "#fddaec", "#f2f2f2"}
	Bold    = []string{"#7F3C8D", "#11A579", "#3969AC", "#F2B701", "#E73F74", "#80BA5A", "#E68310", "#008695", "#CF1C90", "#f97b72", "#4b4b8f", "#A5AA99"}
)

func newFigure(title string) *grob.Fig {
	return &grob.Fig{
		Layout: &grob.Layout{
			Title:  &grob.LayoutTitle{Text: title},
			Height: Height,
		},
	}
}

func axes(layout *grob.Layout, x, y string) {
	layout.Xaxis = &grob.LayoutXaxis{Title: &grob.LayoutXaxisTitle{Text: x}}
	layout.Yaxis = &grob.LayoutYaxis{Title: &grob.LayoutYaxisTitle{Text: y}}
}

func cycle(palette []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out
}

// Categories renders a category ranking as a labelled bar chart.
func Categories(r *analysis.CategoryRanking) *grob.Fig {
	labels := make([]string, len(r.Rows))
	counts := make([]float64, len(r.Rows))
	text := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		labels[i] = row.Label
		counts[i] = float64(row.Count)
		text[i] = strconv.Itoa(row.Count)
	}

	fig := newFigure(r.Title)
	fig.Layout.Showlegend = grob.False
	axes(fig.Layout, string(r.Column), "Sales")
	fig.AddTraces(&grob.Bar{
		Type:   grob.TraceTypeBar,
		X:      labels,
		Y:      counts,
		Text:   text,
		Marker: &grob.BarMarker{Color: cycle(Pastel1, len(labels))},
	})
	return fig
}

// Models renders a model ranking as a bar chart.
func Models(r *analysis.ModelRanking) *grob.Fig {
	models := make([]string, len(r.Rows))
	values := make([]float64, len(r.Rows))
	text := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		models[i] = row.Model
		values[i] = row.Value
		text[i] = valueText(r.Metric, row.Value)
	}

	fig := newFigure(r.Title)
	fig.Layout.Showlegend = grob.False
	axes(fig.Layout, "model", metricLabel(r.Metric))
	fig.AddTraces(&grob.Bar{
		Type:   grob.TraceTypeBar,
		X:      models,
		Y:      values,
		Text:   text,
		Marker: &grob.BarMarker{Color: cycle(Bold, len(models))},
	})
	return fig
}

func valueText(metric analysis.ModelMetric, v float64) string {
	switch metric {
	case analysis.MetricCount:
		return strconv.Itoa(int(v))
	case analysis.MetricPriceMMRRatio:
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func metricLabel(metric analysis.ModelMetric) string {
	switch metric {
	case analysis.MetricAvgPrice:
		return "Average selling price"
	case analysis.MetricAvgMMR:
		return "Average MMR"
	case analysis.MetricPriceMMRRatio:
		return "Price/MMR"
	}
	return "Sales"
}

// States renders state counts as a USA choropleth. Codes the map cannot
// place are left out of the trace.
func States(s *analysis.StateCounts) *grob.Fig {
	var (
		codes  []string
		counts []float64
	)
	for _, row := range s.Rows {
		if !row.Mapped {
			continue
		}
		codes = append(codes, row.State)
		counts = append(counts, float64(row.Count))
	}

	fig := newFigure(s.Title)
	fig.Layout.Geo = &grob.LayoutGeo{Scope: grob.LayoutGeoScope("usa")}
	fig.AddTraces(&grob.Choropleth{
		Type:         grob.TraceTypeChoropleth,
		Locations:    codes,
		Z:            counts,
		Locationmode: grob.ChoroplethLocationmode("USA-states"),
		Colorscale:   ScaleBlues,
	})
	return fig
}

// Scatter renders price against the chosen variable, coloured by the
// variable itself.
func Scatter(s *analysis.Scatter) *grob.Fig {
	scale := ScaleBlues
	if s.Variable == analysis.VariableCondition {
		scale = ScaleViridis
	}

	fig := newFigure(s.Title)
	axes(fig.Layout, string(s.Variable), "sellingprice")
	fig.AddTraces(&grob.Scatter{
		Type:    grob.TraceTypeScatter,
		X:       s.X,
		Y:       s.Y,
		Mode:    grob.ScatterModeMarkers,
		Opacity: 0.6,
		Marker: &grob.ScatterMarker{
			Color:      s.X,
			Colorscale: scale,
			Showscale:  grob.True,
		},
	})
	return fig
}

// Trend renders a year trend as a line with markers.
func Trend(t *analysis.Trend) *grob.Fig {
	years := make([]float64, len(t.Rows))
	values := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		years[i] = float64(row.Year)
		values[i] = row.Value
	}

	fig := newFigure(t.Title)
	axes(fig.Layout, "Model year", t.YLabel)
	fig.AddTraces(&grob.Scatter{
		Type: grob.TraceTypeScatter,
		X:    years,
		Y:    values,
		Mode: grob.ScatterModeLines + "+" + grob.ScatterModeMarkers,
	})
	return fig
}

// WriteHTML writes fig as a standalone page that loads plotly.js from its
// CDN.
func WriteHTML(fig *grob.Fig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	offline.ToHtml(fig, path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("chart html not written: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("chart html %s is empty", path)
	}
	return nil
}
