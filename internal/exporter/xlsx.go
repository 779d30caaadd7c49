package exporter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"carsales/internal/analysis"
)

// ErrNoSheets is returned when a workbook would have no sheets.
var ErrNoSheets = errors.New("workbook needs at least one sheet")

// maxSheetName is the longest sheet name spreadsheet tools accept.
const maxSheetName = 31

// Sheet is one view written to its own worksheet.
type Sheet struct {
	Name string
	Data analysis.Tabular
}

// WorkbookWriter writes views into an XLSX workbook.
type WorkbookWriter struct {
	logger *slog.Logger
	// ColumnWidth applied to every populated column.
	ColumnWidth float64
}

// NewWorkbookWriter creates a workbook writer.
func NewWorkbookWriter() *WorkbookWriter {
	return &WorkbookWriter{
		logger:      slog.Default().With(slog.String("component", "workbook_writer")),
		ColumnWidth: 18,
	}
}

// Write renders sheets into a workbook and writes it to out.
func (w *WorkbookWriter) Write(out io.Writer, sheets []Sheet) error {
	f, err := w.build(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile renders sheets into a workbook saved at path.
func (w *WorkbookWriter) WriteFile(path string, sheets []Sheet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := w.build(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Workbook written",
		slog.String("path", path),
		slog.Int("sheets", len(sheets)))
	return nil
}

func (w *WorkbookWriter) build(sheets []Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	seen := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		name := SheetName(s.Name)
		if seen[strings.ToLower(name)] {
			f.Close()
			return nil, fmt.Errorf("duplicate sheet name %q", name)
		}
		seen[strings.ToLower(name)] = true

		if i == 0 {
			err = f.SetSheetName("Sheet1", name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
		}

		if err := w.fill(f, name, s.Data, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	return f, nil
}

func (w *WorkbookWriter) fill(f *excelize.File, sheet string, data analysis.Tabular, headerStyle int) error {
	columns := data.Columns()
	for c, title := range columns {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}
	if len(columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(columns))
		if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, w.ColumnWidth); err != nil {
			return err
		}
	}

	for r, row := range data.Values() {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

// cellValue stores numeric text as a number so spreadsheet formulas work.
func cellValue(s string) interface{} {
	if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
		return n
	}
	return s
}

// SheetName makes name acceptable as a worksheet name.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Sheet"
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}
