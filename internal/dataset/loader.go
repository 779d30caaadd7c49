package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "carsales/internal/errors"
	"carsales/internal/validation"
)

// RequiredColumns must be present in the header row.
var RequiredColumns = []string{"sellingprice", "saledate", "odometer", "condition"}

const cancelCheckEvery = 4096

// Options controls how a source file is read.
type Options struct {
	// DateLayouts overrides DefaultDateLayouts when non-empty.
	DateLayouts []string
	// MaxFileBytes rejects larger files; zero disables the limit.
	MaxFileBytes int64
	Logger       *slog.Logger
}

func (o Options) layouts() []string {
	if len(o.DateLayouts) > 0 {
		return o.DateLayouts
	}
	return DefaultDateLayouts
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// LoadStats describes one load.
type LoadStats struct {
	Source   string         `json:"source"`
	Format   string         `json:"format"`
	RowsRead int            `json:"rows_read"`
	RowsKept int            `json:"rows_kept"`
	Dropped  map[string]int `json:"dropped"`
	Duration time.Duration  `json:"duration_ns"`
}

// RowsDropped sums the per-reason drop counts.
func (s LoadStats) RowsDropped() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Load validates path, parses it and returns the cleaned table. Any failure
// to read the file as tabular data is fatal: no partial table is returned.
func Load(ctx context.Context, path string, opts Options) (*Table, LoadStats, error) {
	logger := opts.logger().With(slog.String("component", "dataset_loader"))
	start := time.Now()
	stats := LoadStats{Source: path}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateDatasetFile(path, opts.MaxFileBytes); err != nil {
		return nil, stats, apperrors.NewDatasetError("dataset file rejected", err).
			WithContext("path", path)
	}

	var (
		raw []RawRecord
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		stats.Format = "csv"
		raw, err = readCSVFile(ctx, path, opts.layouts())
	case ".xlsx":
		stats.Format = "xlsx"
		raw, err = readXLSXFile(ctx, path, opts.layouts())
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, stats, err
		}
		return nil, stats, apperrors.NewParsingError("dataset is not readable as a sales table", err).
			WithContext("path", path)
	}

	records, dropped := Clean(raw)
	stats.RowsRead = len(raw)
	stats.RowsKept = len(records)
	stats.Dropped = dropped

	table := newTable(records, stats)
	stats.Duration = time.Since(start)
	table.stats.Duration = stats.Duration

	logger.Info("Dataset loaded",
		slog.String("source", path),
		slog.String("format", stats.Format),
		slog.Int("rows_read", stats.RowsRead),
		slog.Int("rows_kept", stats.RowsKept),
		slog.Int("rows_dropped", stats.RowsDropped()),
		slog.Duration("duration", stats.Duration))

	return table, stats, nil
}

func readCSVFile(ctx context.Context, path string, layouts []string) ([]RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ReadCSV(ctx, f, layouts)
}

// ReadCSV parses sale rows from r. A UTF-8 byte order mark is skipped and
// headers are matched case-insensitively.
func ReadCSV(ctx context.Context, r io.Reader, layouts []string) ([]RawRecord, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []RawRecord
	for n := 0; ; n++ {
		if n%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rows = append(rows, cols.raw(record, layouts))
	}
	return rows, nil
}

func readXLSXFile(ctx context.Context, path string, layouts []string) ([]RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readWorkbook(ctx, f, layouts)
}

// readWorkbook uses the first sheet whose first row resolves the required
// columns.
func readWorkbook(ctx context.Context, f *excelize.File, layouts []string) ([]RawRecord, error) {
	var lastErr error = ErrNoHeader

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			lastErr = fmt.Errorf("sheet %q: %w", sheet, err)
			continue
		}
		if len(rows) == 0 {
			continue
		}

		cols, err := resolveColumns(rows[0])
		if err != nil {
			lastErr = fmt.Errorf("sheet %q: %w", sheet, err)
			continue
		}

		out := make([]RawRecord, 0, len(rows)-1)
		for i, row := range rows[1:] {
			if i%cancelCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			out = append(out, cols.raw(row, layouts))
		}
		return out, nil
	}
	return nil, lastErr
}

// columnIndex maps canonical column names to field positions.
type columnIndex map[string]int

func resolveColumns(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func (c columnIndex) field(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func (c columnIndex) raw(record []string, layouts []string) RawRecord {
	return RawRecord{
		Make:         c.field(record, "make"),
		Model:        c.field(record, "model"),
		Trim:         c.field(record, "trim"),
		Body:         c.field(record, "body"),
		Transmission: c.field(record, "transmission"),
		Color:        c.field(record, "color"),
		Interior:     c.field(record, "interior"),
		State:        c.field(record, "state"),
		Year:         parseYear(c.field(record, "year")),
		Odometer:     parseFloat(c.field(record, "odometer")),
		Condition:    parseFloat(c.field(record, "condition")),
		SellingPrice: parseFloat(c.field(record, "sellingprice")),
		MMR:          parseFloat(c.field(record, "mmr")),
		SaleDate:     parseSaleDate(c.field(record, "saledate"), layouts),
	}
}
