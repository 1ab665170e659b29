package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/safedata/safedata/pkg/models"
)

// Export writes a table as CSV with the table's columns as the header row.
// Missing values are written as empty cells so a round trip preserves them.
func Export(ctx context.Context, w io.Writer, table *models.Table) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for j, cell := range row {
			record[j] = cell.Format()
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// ExportFile writes a table to a CSV file on disk
func ExportFile(ctx context.Context, path string, table *models.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := Export(ctx, f, table); err != nil {
		return err
	}
	return f.Close()
}
