package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"carsales/internal/dataset"
)

// usStates are the codes the USA-states choropleth can place.
var usStates = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {}, "DE": {}, "DC": {},
	"FL": {}, "GA": {}, "HI": {}, "ID": {}, "IL": {}, "IN": {}, "IA": {}, "KS": {}, "KY": {},
	"LA": {}, "ME": {}, "MD": {}, "MA": {}, "MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {},
	"NE": {}, "NV": {}, "NH": {}, "NJ": {}, "NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {},
	"OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {}, "SD": {}, "TN": {}, "TX": {}, "UT": {},
	"VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {}, "WY": {},
}

// IsMappedState reports whether the choropleth has a shape for code.
func IsMappedState(code string) bool {
	_, ok := usStates[code]
	return ok
}

// StateRow is the number of sales in one state.
type StateRow struct {
	State  string `json:"state"`
	Count  int    `json:"count"`
	Mapped bool   `json:"mapped"`
}

// StateCounts is the sales distribution across states.
type StateCounts struct {
	Make  string     `json:"make"`
	Model string     `json:"model"`
	Title string     `json:"title"`
	Rows  []StateRow `json:"rows"`
}

// CountStates counts rows per state after the map filters. makeFilter is
// All or a make; modelFilter is All or a model of that make and is ignored
// when makeFilter is All. Codes the map cannot place are kept and flagged.
func CountStates(t *dataset.Table, makeFilter, modelFilter string) (*StateCounts, error) {
	if makeFilter == "" {
		makeFilter = All
	}
	if modelFilter == "" || makeFilter == All {
		modelFilter = All
	}
	if makeFilter != All && !t.HasMake(makeFilter) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMake, makeFilter)
	}
	if modelFilter != All && !t.HasModel(makeFilter, modelFilter) {
		return nil, fmt.Errorf("%w: %q for make %q", ErrUnknownModel, modelFilter, makeFilter)
	}

	counts := make(map[string]int)
	t.Each(func(r dataset.Record) bool {
		if makeFilter != All && r.Make != makeFilter {
			return true
		}
		if modelFilter != All && r.Model != modelFilter {
			return true
		}
		counts[r.State]++
		return true
	})

	rows := make([]StateRow, 0, len(counts))
	for state, n := range counts {
		rows = append(rows, StateRow{State: state, Count: n, Mapped: IsMappedState(state)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].State < rows[j].State
	})

	return &StateCounts{
		Make:  makeFilter,
		Model: modelFilter,
		Title: StatesTitle(makeFilter, modelFilter),
		Rows:  rows,
	}, nil
}

// StatesTitle is the chart title of the state map.
func StatesTitle(makeFilter, modelFilter string) string {
	switch {
	case makeFilter == All || makeFilter == "":
		return "Sales distribution by state"
	case modelFilter == All || modelFilter == "":
		return fmt.Sprintf("Sales distribution by state: %s", makeFilter)
	}
	return fmt.Sprintf("Sales distribution by state: %s %s", makeFilter, modelFilter)
}

// Columns implements Tabular.
func (s *StateCounts) Columns() []string {
	return []string{"state", "count", "mapped"}
}

// Values implements Tabular.
func (s *StateCounts) Values() [][]string {
	out := make([][]string, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = []string{r.State, strconv.Itoa(r.Count), strconv.FormatBool(r.Mapped)}
	}
	return out
}
