package privacy

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/safedata/safedata/pkg/models"
)

// columnDrift summarizes how far noise moved each perturbed column. Both
// tables must have the same shape; callers pass the input table and its
// noised copy.
func (e *Engine) columnDrift(before, after *models.Table, columns []string) []models.ColumnDrift {
	drift := make([]models.ColumnDrift, 0, len(columns))
	for _, col := range columns {
		origVals := before.ColumnValues(col)
		noisedVals := after.ColumnValues(col)
		if len(origVals) == 0 {
			continue
		}

		meanBefore, stdBefore := stat.MeanStdDev(origVals, nil)
		meanAfter, stdAfter := stat.MeanStdDev(noisedVals, nil)
		if math.IsNaN(stdBefore) {
			stdBefore = 0
		}
		if math.IsNaN(stdAfter) {
			stdAfter = 0
		}

		absDelta := 0.0
		n := len(origVals)
		if len(noisedVals) < n {
			n = len(noisedVals)
		}
		for i := 0; i < n; i++ {
			absDelta += math.Abs(noisedVals[i] - origVals[i])
		}
		if n > 0 {
			absDelta /= float64(n)
		}

		drift = append(drift, models.ColumnDrift{
			Column:       col,
			MeanBefore:   meanBefore,
			MeanAfter:    meanAfter,
			StdDevBefore: stdBefore,
			StdDevAfter:  stdAfter,
			MeanAbsDelta: absDelta,
		})
	}
	return drift
}
