package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"carsales/internal/charts"
	"carsales/internal/config"
	"carsales/internal/exporter"
	"carsales/internal/validation"
)

// exportWorkers bounds the files written at once by ExportDir.
const exportWorkers = 4

// ExportCSV writes view as CSV to w.
func (ds *DashboardService) ExportCSV(ctx context.Context, w io.Writer, view ViewName, p Params) error {
	v, err := ds.Render(ctx, view, p)
	if err != nil {
		return err
	}
	if err := exporter.EncodeTable(w, v.Data, true); err != nil {
		return fmt.Errorf("%w: %s csv: %v", ErrExportFailed, view, err)
	}
	ds.tracer.RecordExport(ctx, "csv")
	return nil
}

// defaultSheets renders every view at its defaults, one sheet each.
func (ds *DashboardService) defaultSheets(ctx context.Context) ([]exporter.Sheet, []*View, error) {
	sheets := make([]exporter.Sheet, 0, len(Views))
	views := make([]*View, 0, len(Views))
	for _, name := range Views {
		v, err := ds.Render(ctx, name, Params{})
		if err != nil {
			return nil, nil, err
		}
		sheets = append(sheets, exporter.Sheet{Name: string(name), Data: v.Data})
		views = append(views, v)
	}
	return sheets, views, nil
}

// ExportWorkbook writes every descriptive view at its defaults into one
// XLSX workbook.
func (ds *DashboardService) ExportWorkbook(ctx context.Context, w io.Writer) error {
	sheets, _, err := ds.defaultSheets(ctx)
	if err != nil {
		return err
	}
	if err := exporter.NewWorkbookWriter().Write(w, sheets); err != nil {
		return fmt.Errorf("%w: workbook: %v", ErrExportFailed, err)
	}
	ds.tracer.RecordExport(ctx, "xlsx")
	return nil
}

// ExportResult lists the files written by ExportDir.
type ExportResult struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// ExportDir writes a CSV and a chart page per view, the workbook and the
// cleaned table into dir. Files are written concurrently; the first failure
// cancels the rest.
func (ds *DashboardService) ExportDir(ctx context.Context, dir string) (*ExportResult, error) {
	if err := validation.NewFileValidator(ds.logger).ValidateOutputDirectory(dir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	sheets, views, err := ds.defaultSheets(ctx)
	if err != nil {
		return nil, err
	}

	csvWriter := exporter.NewCSVWriter(dir).WithLogger(ds.logger)
	res := &ExportResult{Dir: dir}
	var mu sync.Mutex
	written := func(path, format string) {
		mu.Lock()
		res.Files = append(res.Files, path)
		mu.Unlock()
		ds.tracer.RecordExport(ctx, format)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportWorkers)

	for _, v := range views {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, string(v.View)+".csv")
			if err := csvWriter.WriteTable(path, v.Data); err != nil {
				return fmt.Errorf("%s csv: %w", v.View, err)
			}
			written(path, "csv")
			return nil
		})
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, "charts", string(v.View)+".html")
			if err := charts.WriteHTML(v.Figure, path); err != nil {
				return fmt.Errorf("%s chart: %w", v.View, err)
			}
			written(path, "html")
			return nil
		})
	}

	g.Go(func() error {
		path := filepath.Join(dir, config.WorkbookFileName)
		if err := exporter.NewWorkbookWriter().WriteFile(path, sheets); err != nil {
			return fmt.Errorf("workbook: %w", err)
		}
		written(path, "xlsx")
		return nil
	})

	g.Go(func() error {
		path := filepath.Join(dir, config.CleanedFileName)
		if _, err := csvWriter.WriteRecords(path, ds.table); err != nil {
			return fmt.Errorf("cleaned table: %w", err)
		}
		written(path, "csv")
		return nil
	})

	if err := g.Wait(); err != nil {
		ds.logger.ErrorContext(ctx, "Export failed",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	sort.Strings(res.Files)
	ds.logger.InfoContext(ctx, "Export completed",
		slog.String("dir", dir),
		slog.Int("files", len(res.Files)))
	return res, nil
}
