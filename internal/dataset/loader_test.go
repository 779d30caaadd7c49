package dataset

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "carsales/internal/errors"
	"carsales/internal/shared/testutil"
	"carsales/internal/validation"
)

func TestLoad_SampleCSV(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	table, stats, err := Load(context.Background(), filepath.Join("testdata", "sample.csv"), Options{Logger: logger})
	require.NoError(t, err)

	assert.Equal(t, "csv", stats.Format)
	assert.Equal(t, 11, stats.RowsRead)
	assert.Equal(t, 8, stats.RowsKept)
	assert.Equal(t, 3, stats.RowsDropped())
	assert.Equal(t, map[string]int{
		DropMissingCondition: 1,
		DropMissingSaleDate:  1,
		DropMissingPrice:     1,
	}, stats.Dropped)
	assert.Equal(t, 8, table.Len())

	table.Each(func(r Record) bool {
		assert.False(t, r.SaleDate.IsZero())
		assert.Equal(t, strings.ToLower(strings.TrimSpace(r.Make)), r.Make)
		assert.Equal(t, strings.ToUpper(strings.TrimSpace(r.State)), r.State)
		return true
	})

	assert.Equal(t, []string{"bmw", "ford", "kia", "nissan", "unknown"}, table.Makes())
	assert.Equal(t, []string{"f150", "fusion"}, table.ModelsOf("ford"))
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "Dataset loaded")
	testutil.AssertLogAttr(t, logs, "component", "dataset_loader")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	noPrice := filepath.Join(dir, "no_price.csv")
	require.NoError(t, os.WriteFile(noPrice, []byte("saledate,odometer,condition\n2015-01-01,1,1\n"), 0644))
	ragged := filepath.Join(dir, "ragged.csv")
	require.NoError(t, os.WriteFile(ragged, []byte("sellingprice,saledate,odometer,condition\n\"unterminated,1,1,1\n"), 0644))

	tests := []struct {
		name     string
		path     string
		wantType apperrors.ErrorType
		wantErr  error
	}{
		{"missing file", filepath.Join(dir, "absent.csv"), apperrors.ErrTypeDataset, validation.ErrFileNotFound},
		{"wrong extension", filepath.Join("testdata", "sample.txt"), apperrors.ErrTypeDataset, validation.ErrUnsupportedExtension},
		{"missing required column", noPrice, apperrors.ErrTypeParsing, ErrMissingColumn},
		{"malformed csv", ragged, apperrors.ErrTypeParsing, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, _, err := Load(context.Background(), tt.path, Options{})
			require.Error(t, err)
			assert.Nil(t, table)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Load(ctx, filepath.Join("testdata", "sample.csv"), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadCSV_BOMAndHeaderCase(t *testing.T) {
	src := "\xEF\xBB\xBF SellingPrice ,SALEDATE,Odometer,Condition,Make\n" +
		"20000,2015-01-02,100,40, Ford \n"

	rows, err := ReadCSV(context.Background(), strings.NewReader(src), DefaultDateLayouts)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, 20000.0, *rows[0].SellingPrice)
	assert.Equal(t, " Ford ", rows[0].Make)
	assert.Nil(t, rows[0].MMR)
	assert.Nil(t, rows[0].Year)
}

func TestReadCSV_EmptyInput(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader(""), nil)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestLoad_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"notes only"}))

	sales := "Sales"
	_, err = f.NewSheet(sales)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sales, "A1", &[]interface{}{"year", "make", "model", "state", "sellingprice", "mmr", "odometer", "condition", "saledate"}))
	require.NoError(t, f.SetSheetRow(sales, "A2", &[]interface{}{2015, " Ford ", "F150", "tx", 20000, 18000, 5554, 41, "2015-01-29 12:30:00"}))
	require.NoError(t, f.SetSheetRow(sales, "A3", &[]interface{}{2014, "Kia", "Optima", "ca", "", 15000, 100, 48, "2015-06-01"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, stats, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)

	assert.Equal(t, "xlsx", stats.Format)
	assert.Equal(t, 2, stats.RowsRead)
	assert.Equal(t, 1, table.Len())

	r := table.Records()[0]
	assert.Equal(t, "ford", r.Make)
	assert.Equal(t, "TX", r.State)
	assert.Equal(t, 2015, r.Year)
	assert.Equal(t, time.Date(2015, 1, 29, 12, 30, 0, 0, time.UTC), r.SaleDate)
}
