// Package exporter writes dashboard views to files.
//
// CSVWriter writes any analysis.Tabular view as CSV, prefixed with a UTF-8
// BOM so spreadsheet tools detect the encoding, and streams the cleaned
// table row by row through StreamWriter.
//
// WorkbookWriter writes several views into one XLSX workbook, one sheet
// per view.
//
// Example usage:
//
//	w := exporter.NewCSVWriter("/path/to/reports")
//	err := w.WriteTable("categories.csv", ranking)
//
//	wb := exporter.NewWorkbookWriter()
//	err = wb.WriteFile("/path/to/reports/views.xlsx", []exporter.Sheet{
//		{Name: "categories", Data: ranking},
//		{Name: "trend", Data: trend},
//	})
package exporter
