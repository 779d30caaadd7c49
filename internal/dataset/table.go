package dataset

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Table is the cleaned, immutable sales table.
type Table struct {
	records []Record
	stats   LoadStats

	makes  []string
	models map[string][]string
	states int
}

// New builds a table from typed records, applying the categorical
// normalisation rules. The input slice is copied.
func New(records []Record) *Table {
	cleaned := make([]Record, len(records))
	for i, r := range records {
		cleaned[i] = normaliseRecord(r)
	}
	return newTable(cleaned, LoadStats{
		Format:   "records",
		RowsRead: len(records),
		RowsKept: len(records),
		Dropped:  map[string]int{},
	})
}

// newTable takes ownership of records.
func newTable(records []Record, stats LoadStats) *Table {
	t := &Table{
		records: records,
		stats:   stats,
		models:  make(map[string][]string),
	}

	seenModels := make(map[string]map[string]struct{})
	seenStates := make(map[string]struct{})
	for _, r := range records {
		ms, ok := seenModels[r.Make]
		if !ok {
			ms = make(map[string]struct{})
			seenModels[r.Make] = ms
			t.makes = append(t.makes, r.Make)
		}
		if _, ok := ms[r.Model]; !ok {
			ms[r.Model] = struct{}{}
			t.models[r.Make] = append(t.models[r.Make], r.Model)
		}
		seenStates[r.State] = struct{}{}
	}

	sort.Strings(t.makes)
	for _, ms := range t.models {
		sort.Strings(ms)
	}
	t.states = len(seenStates)
	return t
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Stats returns the statistics of the load that produced the table.
func (t *Table) Stats() LoadStats { return t.stats }

// Each calls fn for every record in source order until fn returns false.
func (t *Table) Each(fn func(Record) bool) {
	for _, r := range t.records {
		if !fn(r) {
			return
		}
	}
}

// Filter returns a fresh slice of the records matching keep.
func (t *Table) Filter(keep func(Record) bool) []Record {
	var out []Record
	for _, r := range t.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Records returns a copy of all records.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Makes returns the distinct makes in ascending order.
func (t *Table) Makes() []string {
	return append([]string(nil), t.makes...)
}

// HasMake reports whether name is one of the table's makes.
func (t *Table) HasMake(name string) bool {
	_, ok := t.models[name]
	return ok
}

// ModelsOf returns the distinct models of a make in ascending order, or nil
// for an unknown make.
func (t *Table) ModelsOf(makeName string) []string {
	ms, ok := t.models[makeName]
	if !ok {
		return nil
	}
	return append([]string(nil), ms...)
}

// HasModel reports whether model occurs under makeName.
func (t *Table) HasModel(makeName, model string) bool {
	ms := t.models[makeName]
	i := sort.SearchStrings(ms, model)
	return i < len(ms) && ms[i] == model
}

// Summary describes the table as a whole.
type Summary struct {
	Rows           int            `json:"rows"`
	RowsRead       int            `json:"rows_read"`
	Dropped        map[string]int `json:"dropped"`
	Makes          int            `json:"makes"`
	Models         int            `json:"models"`
	States         int            `json:"states"`
	FirstSale      *time.Time     `json:"first_sale,omitempty"`
	LastSale       *time.Time     `json:"last_sale,omitempty"`
	MeanPrice      float64        `json:"mean_price"`
	Source         string         `json:"source,omitempty"`
	LoadDurationMS int64          `json:"load_duration_ms"`
}

// Summary computes the dataset summary.
func (t *Table) Summary() Summary {
	s := Summary{
		Rows:           len(t.records),
		RowsRead:       t.stats.RowsRead,
		Dropped:        make(map[string]int, len(t.stats.Dropped)),
		Makes:          len(t.makes),
		States:         t.states,
		Source:         t.stats.Source,
		LoadDurationMS: t.stats.Duration.Milliseconds(),
	}
	for k, v := range t.stats.Dropped {
		s.Dropped[k] = v
	}
	for _, ms := range t.models {
		s.Models += len(ms)
	}
	if len(t.records) == 0 {
		return s
	}

	prices := make([]float64, len(t.records))
	first, last := t.records[0].SaleDate, t.records[0].SaleDate
	for i, r := range t.records {
		prices[i] = r.SellingPrice
		if r.SaleDate.Before(first) {
			first = r.SaleDate
		}
		if r.SaleDate.After(last) {
			last = r.SaleDate
		}
	}
	s.MeanPrice = stat.Mean(prices, nil)
	s.FirstSale, s.LastSale = &first, &last
	return s
}
