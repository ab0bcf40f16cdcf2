package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// CSVOptions configures CSV writing behavior
type CSVOptions struct {
	Delimiter rune
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes the header and every record of table to w
func WriteCSV(w io.Writer, table *domain.CreditTable, opts CSVOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		writer.Comma = opts.Delimiter
	}

	if err := writer.Write(Header()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	if table != nil {
		for i, r := range table.Records {
			if err := writer.Write(recordCells(r)); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i, err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
