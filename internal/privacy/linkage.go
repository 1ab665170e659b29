package privacy

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/safedata/safedata/pkg/errors"
	"github.com/safedata/safedata/pkg/models"
)

// LinkageRisk matches the working table against an auxiliary true-identifiers
// table on the quasi-identifier columns and reports how many microdata rows
// have at least one match. The match uses the same missing-value sentinel as
// AssessRisk, so rows missing the same field on both sides link up.
func (e *Engine) LinkageRisk(micro, trueIDs *models.Table, quasi []string) (*models.LinkageResult, error) {
	if micro == nil || micro.NumRows() == 0 {
		return nil, errors.NewDataError(errors.CodeEmptyTable, "microdata table has no rows")
	}
	if trueIDs == nil || trueIDs.NumRows() == 0 {
		return nil, errors.NewDataError(errors.CodeEmptyTable, "true-identifiers table has no rows")
	}
	if len(quasi) == 0 {
		return nil, errors.NewDataError(errors.CodeEmptyQuasiSet, "at least one quasi-identifier is required")
	}

	var missingMicro, missingTrue []string
	for _, name := range quasi {
		if !micro.HasColumn(name) {
			missingMicro = append(missingMicro, name)
		}
		if !trueIDs.HasColumn(name) {
			missingTrue = append(missingTrue, name)
		}
	}
	if len(missingMicro) > 0 || len(missingTrue) > 0 {
		return nil, errors.NewDataError(errors.CodeColumnNotFound,
			fmt.Sprintf("quasi-identifiers missing: microdata [%s], true identifiers [%s]",
				strings.Join(missingMicro, ", "), strings.Join(missingTrue, ", ")))
	}

	microIdx, err := resolveColumns(micro, quasi)
	if err != nil {
		return nil, err
	}
	trueIdx, err := resolveColumns(trueIDs, quasi)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, trueIDs.NumRows())
	for _, row := range trueIDs.Rows {
		known[groupKey(row, trueIdx)] = struct{}{}
	}

	matched := 0
	for _, row := range micro.Rows {
		if _, ok := known[groupKey(row, microIdx)]; ok {
			matched++
		}
	}

	total := micro.NumRows()
	result := &models.LinkageResult{
		MatchedRecords:   matched,
		TotalRecords:     total,
		Risk:             100 * float64(matched) / float64(total),
		QuasiIdentifiers: append([]string(nil), quasi...),
	}

	e.logger.WithFields(logrus.Fields{
		"matched": matched,
		"total":   total,
		"risk":    result.Risk,
	}).Debug("Linkage risk computed")

	return result, nil
}
