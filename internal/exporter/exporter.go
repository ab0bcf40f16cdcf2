package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// Exporter writes the cleaned table in any supported format
type Exporter struct {
	logger *slog.Logger
}

// New creates an exporter
func New(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger.With(slog.String("component", "exporter"))}
}

// Export writes table in format to w. SQLite is built in a temporary file
// and then copied, since the driver needs a path.
func (e *Exporter) Export(ctx context.Context, w io.Writer, table *domain.CreditTable, summaries []domain.MetricSummary, format Format) error {
	start := time.Now()

	var err error
	switch format {
	case FormatCSV:
		err = WriteCSV(w, table, CSVOptions{BOMPrefix: true})
	case FormatXLSX:
		err = WriteXLSX(w, table, summaries)
	case FormatSQLite:
		err = e.exportSQLite(ctx, w, table, summaries)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}

	if err != nil {
		e.logger.ErrorContext(ctx, "export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return err
	}

	e.logger.InfoContext(ctx, "export complete",
		slog.String("format", string(format)),
		slog.Int("rows", table.Len()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// ExportFile writes table to path, creating parent directories
func (e *Exporter) ExportFile(ctx context.Context, path string, table *domain.CreditTable, summaries []domain.MetricSummary, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if format == FormatSQLite {
		return WriteSQLite(ctx, path, table, summaries)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := e.Export(ctx, file, table, summaries, format); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (e *Exporter) exportSQLite(ctx context.Context, w io.Writer, table *domain.CreditTable, summaries []domain.MetricSummary) error {
	dir, err := os.MkdirTemp("", "credit-export-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "credit_trends.db")
	if err := WriteSQLite(ctx, path, table, summaries); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sqlite export: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy sqlite export: %w", err)
	}
	return nil
}
