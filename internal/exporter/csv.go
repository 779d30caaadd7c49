package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"carsales/internal/analysis"
	"carsales/internal/dataset"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// RecordHeaders is the header row of a cleaned-table export.
var RecordHeaders = []string{
	"year", "make", "model", "trim", "body", "transmission", "state",
	"condition", "odometer", "color", "interior", "mmr", "sellingprice", "saledate",
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewCSVWriter creates a CSV writer resolving relative paths against baseDir.
func NewCSVWriter(baseDir string) *CSVWriter {
	return &CSVWriter{
		baseDir: baseDir,
		logger:  slog.Default().With(slog.String("component", "csv_writer")),
	}
}

// WithLogger returns a copy of w logging to logger.
func (w *CSVWriter) WithLogger(logger *slog.Logger) *CSVWriter {
	return &CSVWriter{baseDir: w.baseDir, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write(bom); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	var headers []string
	if !options.Append {
		headers = options.Headers
	}
	return writeRows(file, headers, options.Records)
}

// WriteTable writes a view's rows to filePath with a header row and BOM.
func (w *CSVWriter) WriteTable(filePath string, table analysis.Tabular) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   table.Columns(),
		Records:   table.Values(),
		BOMPrefix: true,
	})
}

// AppendToCSV appends records to an existing CSV file
func (w *CSVWriter) AppendToCSV(filePath string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Records: records,
		Append:  true,
	})
}

// EncodeTable writes a view as CSV to out, for HTTP downloads.
func EncodeTable(out io.Writer, table analysis.Tabular, withBOM bool) error {
	if withBOM {
		if _, err := out.Write(bom); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	return writeRows(out, table.Columns(), table.Values())
}

func writeRows(out io.Writer, headers []string, records [][]string) error {
	writer := csv.NewWriter(out)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	rows   int
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := file.Write(bom); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{file: file, writer: writer}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Rows returns the number of records written so far.
func (s *StreamWriter) Rows() int { return s.rows }

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// WriteRecords streams every row of the cleaned table to filePath and
// returns the number of rows written.
func (w *CSVWriter) WriteRecords(filePath string, t *dataset.Table) (int, error) {
	stream, err := w.CreateStreamWriter(filePath, RecordHeaders)
	if err != nil {
		return 0, err
	}

	var writeErr error
	t.Each(func(r dataset.Record) bool {
		writeErr = stream.WriteRecord(recordRow(r))
		return writeErr == nil
	})
	if writeErr != nil {
		stream.Close()
		return stream.Rows(), fmt.Errorf("failed to write record %d: %w", stream.Rows(), writeErr)
	}
	return stream.Rows(), stream.Close()
}

func recordRow(r dataset.Record) []string {
	mmr := formatFloat(r.MMR)
	if r.MMRMissing {
		mmr = ""
	}
	return []string{
		formatYear(r.Year), r.Make, r.Model, r.Trim, r.Body, r.Transmission, r.State,
		formatFloat(r.Condition), formatFloat(r.Odometer), r.Color, r.Interior,
		mmr, formatFloat(r.SellingPrice), formatTime(r.SaleDate),
	}
}

// resolvePath resolves a relative path against the writer's base directory.
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}
