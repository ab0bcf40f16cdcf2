package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// SQLite table names
const (
	TableQuarters = "credit_quarters"
	TableMetrics  = "metric_catalog"
	TableSummary  = "metric_summary"
)

// WriteSQLite creates a fresh database at path holding the quarters, the
// metric catalog and the summary. An existing file is replaced.
func WriteSQLite(ctx context.Context, path string, table *domain.CreditTable, summaries []domain.MetricSummary) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if err := insertQuarters(ctx, tx, table); err != nil {
		return err
	}
	if err := insertCatalog(ctx, tx); err != nil {
		return err
	}
	if err := insertSummary(ctx, tx, summaries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func schema() []string {
	defs := []string{
		`"row_id" INTEGER PRIMARY KEY`,
		`"quarter" TEXT NOT NULL`,
		`"period" TEXT NOT NULL`,
	}
	for _, m := range domain.Metrics() {
		defs = append(defs, fmt.Sprintf("%q REAL NOT NULL", string(m.ID)))
	}

	return []string{
		// Duplicate quarters are kept, so quarter is indexed rather than unique
		fmt.Sprintf(`CREATE TABLE %q (%s)`, TableQuarters, strings.Join(defs, ", ")),
		fmt.Sprintf(`CREATE INDEX "idx_%s_quarter" ON %q ("quarter")`, TableQuarters, TableQuarters),
		fmt.Sprintf(`CREATE TABLE %q ("id" TEXT PRIMARY KEY, "column_name" TEXT NOT NULL, "label" TEXT NOT NULL, "unit" TEXT NOT NULL)`, TableMetrics),
		fmt.Sprintf(`CREATE TABLE %q ("metric" TEXT PRIMARY KEY, "count" INTEGER NOT NULL, "mean" REAL, "std_dev" REAL, "min" REAL, "q1" REAL, "median" REAL, "q3" REAL, "max" REAL)`, TableSummary),
	}
}

func insertQuarters(ctx context.Context, tx *sql.Tx, table *domain.CreditTable) error {
	header := Header()
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = fmt.Sprintf("%q", h)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, TableQuarters, strings.Join(cols, ","), ph))
	if err != nil {
		return fmt.Errorf("prepare quarter insert: %w", err)
	}
	defer stmt.Close()

	if table == nil {
		return nil
	}

	metrics := domain.Metrics()
	for _, r := range table.Records {
		args := make([]any, 0, len(header))
		args = append(args, r.Quarter, r.Period.Format(periodLayout))
		for _, m := range metrics {
			args = append(args, r.Value(m.ID))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert quarter %s: %w", r.Quarter, err)
		}
	}
	return nil
}

func insertCatalog(ctx context.Context, tx *sql.Tx) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q VALUES (?, ?, ?, ?)`, TableMetrics))
	if err != nil {
		return fmt.Errorf("prepare catalog insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range domain.Metrics() {
		if _, err := stmt.ExecContext(ctx, string(m.ID), m.Column, m.Label, string(m.Unit)); err != nil {
			return fmt.Errorf("insert metric %s: %w", m.ID, err)
		}
	}
	return nil
}

func insertSummary(ctx context.Context, tx *sql.Tx, summaries []domain.MetricSummary) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, TableSummary))
	if err != nil {
		return fmt.Errorf("prepare summary insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range summaries {
		if _, err := stmt.ExecContext(ctx, string(s.Metric), s.Count, s.Mean, s.StdDev, s.Min, s.Q1, s.Median, s.Q3, s.Max); err != nil {
			return fmt.Errorf("insert summary %s: %w", s.Metric, err)
		}
	}
	return nil
}
