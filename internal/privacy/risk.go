package privacy

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/safedata/safedata/pkg/errors"
	"github.com/safedata/safedata/pkg/models"
)

// missingSentinel stands in for absent quasi-identifier values during
// grouping. Two rows missing the same field compare equal on that field, and
// the sentinel never collides with a real value.
const missingSentinel = "\x00<missing>\x00"

// fieldSeparator joins the per-column group key pieces
const fieldSeparator = "\x1f"

// AssessRisk groups rows by their quasi-identifier tuple and scores the table
// as the percentage of rows whose tuple occurs exactly once. A table where
// every tuple is distinct scores 100; duplicated tuples are never counted as
// at risk.
func (e *Engine) AssessRisk(table *models.Table, quasi []string) (*models.RiskAssessment, error) {
	if table == nil || table.NumRows() == 0 {
		return nil, errors.NewDataError(errors.CodeEmptyTable, "cannot assess risk of an empty table")
	}
	if len(quasi) == 0 {
		return nil, errors.NewDataError(errors.CodeEmptyQuasiSet, "at least one quasi-identifier is required")
	}

	indexes, err := resolveColumns(table, quasi)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]int, table.NumRows())
	for _, row := range table.Rows {
		groups[groupKey(row, indexes)]++
	}

	unique := 0
	for _, size := range groups {
		if size == 1 {
			unique++
		}
	}

	total := table.NumRows()
	assessment := &models.RiskAssessment{
		Score:            100 * float64(unique) / float64(total),
		TotalRows:        total,
		UniqueRows:       unique,
		QuasiIdentifiers: append([]string(nil), quasi...),
		AssessedAt:       time.Now().UTC(),
	}

	e.logger.WithFields(logrus.Fields{
		"rows":   total,
		"unique": unique,
		"score":  assessment.Score,
		"quasi":  quasi,
	}).Debug("Risk assessment complete")

	return assessment, nil
}

// resolveColumns maps quasi-identifier names to column indexes
func resolveColumns(table *models.Table, quasi []string) ([]int, error) {
	indexes := make([]int, 0, len(quasi))
	for _, name := range quasi {
		idx, ok := table.ColumnIndex(name)
		if !ok {
			return nil, errors.NewDataError(errors.CodeColumnNotFound,
				fmt.Sprintf("quasi-identifier column %q not present in table", name))
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// groupKey builds the grouping key for a row over the given column indexes.
// Numbers use their canonical formatting so 40 and 40.0 group together.
func groupKey(row []models.Value, indexes []int) string {
	var b strings.Builder
	for i, idx := range indexes {
		if i > 0 {
			b.WriteString(fieldSeparator)
		}
		cell := row[idx]
		if cell.IsMissing() {
			b.WriteString(missingSentinel)
		} else {
			b.WriteString(cell.Format())
		}
	}
	return b.String()
}
