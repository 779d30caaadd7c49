package analysis

import "strconv"

// Tabular is a view result that can be written as a table.
type Tabular interface {
	Columns() []string
	Values() [][]string
}

var (
	_ Tabular = (*CategoryRanking)(nil)
	_ Tabular = (*ModelRanking)(nil)
	_ Tabular = (*StateCounts)(nil)
	_ Tabular = (*Scatter)(nil)
	_ Tabular = (*Trend)(nil)
)

// formatFloat renders aggregates with four decimals so ratios stay legible.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
