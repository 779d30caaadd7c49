package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"carsales/internal/dataset"
)

// CategoryRow is the number of sales for one value of a column.
type CategoryRow struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CategoryRanking is the top or bottom of a column's value counts.
type CategoryRanking struct {
	Column    dataset.Column `json:"column"`
	Direction Direction      `json:"direction"`
	Title     string         `json:"title"`
	Rows      []CategoryRow  `json:"rows"`
}

// RankCategories counts rows per distinct value of col and returns the ten
// highest counts in descending order (Top) or the ten lowest in ascending
// order (Bottom). Fewer distinct values yield all of them. Rows without a
// model year are not counted when ranking by year.
func RankCategories(t *dataset.Table, col dataset.Column, dir Direction) (*CategoryRanking, error) {
	if !oneOf(col, CategoryColumns) {
		return nil, invalid("column", col)
	}
	if !oneOf(dir, Directions) {
		return nil, invalid("direction", dir)
	}

	counts := make(map[string]int)
	var labelErr error
	t.Each(func(r dataset.Record) bool {
		if col == dataset.ColumnYear && r.Year == 0 {
			return true
		}
		label, err := r.Label(col)
		if err != nil {
			labelErr = err
			return false
		}
		counts[label]++
		return true
	})
	if labelErr != nil {
		return nil, labelErr
	}

	rows := make([]CategoryRow, 0, len(counts))
	for label, n := range counts {
		rows = append(rows, CategoryRow{Label: label, Count: n})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			if dir == Top {
				return rows[i].Count > rows[j].Count
			}
			return rows[i].Count < rows[j].Count
		}
		return rows[i].Label < rows[j].Label
	})
	if len(rows) > TopN {
		rows = rows[:TopN]
	}

	return &CategoryRanking{
		Column:    col,
		Direction: dir,
		Title:     CategoryTitle(col, dir),
		Rows:      rows,
	}, nil
}

// CategoryTitle is the chart title of a category ranking.
func CategoryTitle(col dataset.Column, dir Direction) string {
	word := "Top"
	if dir == Bottom {
		word = "Bottom"
	}
	return fmt.Sprintf("%s %d %s categories by sales", word, TopN, col)
}

// Columns implements Tabular.
func (c *CategoryRanking) Columns() []string {
	return []string{string(c.Column), "count"}
}

// Values implements Tabular.
func (c *CategoryRanking) Values() [][]string {
	out := make([][]string, len(c.Rows))
	for i, r := range c.Rows {
		out[i] = []string{r.Label, strconv.Itoa(r.Count)}
	}
	return out
}
