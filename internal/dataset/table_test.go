package dataset

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalisesAndCopies(t *testing.T) {
	input := []Record{
		{Make: " Ford ", Model: "F150", State: "ca", SellingPrice: 20000, MMR: 18000, SaleDate: time.Now()},
		{Make: "ford", Model: "f150", State: "CA", SellingPrice: 9000, MMR: 0, SaleDate: time.Now()},
	}

	table := New(input)
	input[0].Make = "mutated"

	records := table.Records()
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "ford", r.Make)
		assert.Equal(t, "f150", r.Model)
		assert.Equal(t, "CA", r.State)
		assert.Equal(t, Unknown, r.Trim)
	}

	records[0].Make = "changed"
	assert.Equal(t, "ford", table.Records()[0].Make, "Records must hand out a copy")
	assert.Equal(t, []string{"ford"}, table.Makes())
}

func TestTable_Lookups(t *testing.T) {
	table := New([]Record{
		{Make: "kia", Model: "sorento"},
		{Make: "kia", Model: "optima"},
		{Make: "kia", Model: "sorento"},
		{Make: "bmw", Model: "3 series"},
	})

	assert.True(t, table.HasMake("kia"))
	assert.False(t, table.HasMake("ford"))
	assert.Equal(t, []string{"optima", "sorento"}, table.ModelsOf("kia"))
	assert.Nil(t, table.ModelsOf("ford"))
	assert.True(t, table.HasModel("kia", "optima"))
	assert.False(t, table.HasModel("bmw", "optima"))

	makes := table.Makes()
	makes[0] = "zzz"
	assert.Equal(t, []string{"bmw", "kia"}, table.Makes())
}

func TestTable_FilterAndEach(t *testing.T) {
	table := New([]Record{
		{Make: "kia", SellingPrice: 1},
		{Make: "bmw", SellingPrice: 2},
		{Make: "kia", SellingPrice: 3},
	})

	kias := table.Filter(func(r Record) bool { return r.Make == "kia" })
	assert.Len(t, kias, 2)

	visited := 0
	table.Each(func(r Record) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestTable_Summary(t *testing.T) {
	table, _, err := Load(context.Background(), filepath.Join("testdata", "sample.csv"), Options{})
	require.NoError(t, err)

	s := table.Summary()
	assert.Equal(t, 8, s.Rows)
	assert.Equal(t, 11, s.RowsRead)
	assert.Equal(t, 5, s.Makes)
	assert.Equal(t, 6, s.Models)
	assert.Equal(t, 5, s.States)
	assert.InDelta(t, 16500.0, s.MeanPrice, 1e-9)
	require.NotNil(t, s.FirstSale)
	require.NotNil(t, s.LastSale)
	assert.Equal(t, time.Date(2014, 12, 16, 20, 30, 0, 0, time.UTC), *s.FirstSale)
	assert.Equal(t, time.Date(2015, 5, 5, 10, 0, 0, 0, time.UTC), *s.LastSale)
	assert.Equal(t, 1, s.Dropped[DropMissingPrice])
}

func TestTable_SummaryEmpty(t *testing.T) {
	s := New(nil).Summary()
	assert.Zero(t, s.Rows)
	assert.Nil(t, s.FirstSale)
	assert.Zero(t, s.MeanPrice)
}
