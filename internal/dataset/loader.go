package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/safedata/safedata/pkg/errors"
	"github.com/safedata/safedata/pkg/models"
)

// Load reads a CSV document into a Table. The first record is the header;
// every following record must have the same width. Empty cells load as
// missing values. A column is numeric when every non-empty cell parses as a
// float; otherwise all its cells stay strings, matching how the values were
// written.
func Load(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeMalformedCSV, "failed to parse CSV input")
	}

	if len(records) == 0 {
		return nil, errors.NewDataError(errors.CodeMalformedCSV, "input has no header row")
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(name)
	}

	rows := records[1:]
	for i, rec := range rows {
		if len(rec) != len(header) {
			return nil, errors.NewDataError(errors.CodeMalformedCSV,
				fmt.Sprintf("row %d has %d fields, header has %d", i+2, len(rec), len(header)))
		}
	}

	numeric := inferNumericColumns(header, rows)

	table := models.NewTable(header)
	for _, rec := range rows {
		row := make([]models.Value, len(header))
		for j, cell := range rec {
			row[j] = parseCell(cell, numeric[j])
		}
		table.AppendRow(row)
	}

	return table, nil
}

// LoadFile reads a CSV file from disk
func LoadFile(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeReadFailed,
			fmt.Sprintf("failed to open %s", path))
	}
	defer f.Close()

	return Load(f)
}

// inferNumericColumns marks each column numeric when all of its non-empty
// cells parse as floats and at least one does.
func inferNumericColumns(header []string, rows [][]string) []bool {
	numeric := make([]bool, len(header))
	for j := range header {
		seen := false
		ok := true
		for _, rec := range rows {
			cell := strings.TrimSpace(rec[j])
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				ok = false
				break
			}
			seen = true
		}
		numeric[j] = ok && seen
	}
	return numeric
}

func parseCell(cell string, numeric bool) models.Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return models.Missing()
	}
	if numeric {
		f, err := strconv.ParseFloat(trimmed, 64)
		if err == nil {
			return models.Num(f)
		}
	}
	return models.Str(cell)
}
