package privacy

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/safedata/safedata/pkg/constants"
	"github.com/safedata/safedata/pkg/errors"
	"github.com/safedata/safedata/pkg/models"
)

// GeneralizeAge returns a new table where the age column's values are
// replaced by categorical bucket labels. Width w produces the half-open
// buckets [floor(v/w)*w, floor(v/w)*w + w), rendered as "30-39" for width 10.
// A width of 0 selects the default of 10; a negative width is rejected.
// Negative or non-numeric entries map to the "unknown" bucket so dirty input
// never aborts the transform. Missing cells stay missing.
func (e *Engine) GeneralizeAge(table *models.Table, column string, width int) (*models.Table, error) {
	if table == nil || table.NumRows() == 0 {
		return nil, errors.NewDataError(errors.CodeEmptyTable, "cannot generalize an empty table")
	}
	if width < 0 {
		return nil, errors.NewConfigError(errors.CodeInvalidBucketWidth,
			fmt.Sprintf("age bucket width must be positive, got %d", width))
	}
	if width == 0 {
		width = constants.DefaultAgeBucketWidth
	}

	idx, ok := table.ColumnIndex(column)
	if !ok {
		return nil, errors.NewDataError(errors.CodeColumnNotFound,
			fmt.Sprintf("age column %q not present in table", column))
	}

	result := table.Clone()
	for _, row := range result.Rows {
		if row[idx].IsMissing() {
			continue
		}
		row[idx] = models.Str(BucketLabel(row[idx], width))
	}

	e.logger.WithFields(logrus.Fields{
		"column": column,
		"width":  width,
		"rows":   result.NumRows(),
	}).Debug("Age generalization applied")

	return result, nil
}

// BucketLabel maps a single cell to its age-bucket label. Bucketing is a pure
// function of the value and the width: identical ages always land in the same
// bucket and a larger age never maps to a lower bucket start.
func BucketLabel(v models.Value, width int) string {
	age, ok := v.AsNumber()
	if !ok || age < 0 {
		return constants.UnknownBucketLabel
	}
	lo := int(math.Floor(age/float64(width))) * width
	return fmt.Sprintf("%d-%d", lo, lo+width-1)
}
