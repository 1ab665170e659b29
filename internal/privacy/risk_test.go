package privacy

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedata/safedata/pkg/errors"
	"github.com/safedata/safedata/pkg/models"
)

func newTestEngine() *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewEngine(logger)
}

func tableFromRows(columns []string, rows ...[]models.Value) *models.Table {
	table := models.NewTable(columns)
	for _, row := range rows {
		table.AppendRow(row)
	}
	return table
}

func TestAssessRiskEndToEnd(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"age", "zip"},
		[]models.Value{models.Num(34), models.Str("10001")},
		[]models.Value{models.Num(34), models.Str("10001")},
		[]models.Value{models.Num(40), models.Str("10002")},
		[]models.Value{models.Num(41), models.Str("10002")},
		[]models.Value{models.Num(99), models.Str("10099")},
	)

	before, err := engine.AssessRisk(table, []string{"age", "zip"})
	require.NoError(t, err)
	assert.Equal(t, 5, before.TotalRows)
	assert.Equal(t, 3, before.UniqueRows)
	assert.InDelta(t, 60.0, before.Score, 1e-9)

	// Width-10 generalisation collapses rows 3 and 4; only row 5 stays unique.
	generalized, err := engine.GeneralizeAge(table, "age", 10)
	require.NoError(t, err)

	after, err := engine.AssessRisk(generalized, []string{"age", "zip"})
	require.NoError(t, err)
	assert.Equal(t, 1, after.UniqueRows)
	assert.InDelta(t, 20.0, after.Score, 1e-9)
}

func TestAssessRiskAllDistinct(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"a"},
		[]models.Value{models.Num(1)},
		[]models.Value{models.Num(2)},
		[]models.Value{models.Num(3)},
	)

	assessment, err := engine.AssessRisk(table, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, assessment.Score)
}

func TestAssessRiskAllDuplicated(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"a"},
		[]models.Value{models.Str("x")},
		[]models.Value{models.Str("x")},
	)

	assessment, err := engine.AssessRisk(table, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, assessment.Score)
	assert.Equal(t, 0, assessment.UniqueRows)
}

func TestAssessRiskSingleRow(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"a"}, []models.Value{models.Num(42)})

	assessment, err := engine.AssessRisk(table, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, assessment.Score)
}

func TestAssessRiskScoreBounds(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"a", "b"},
		[]models.Value{models.Num(1), models.Str("x")},
		[]models.Value{models.Num(1), models.Str("x")},
		[]models.Value{models.Num(2), models.Str("y")},
	)

	assessment, err := engine.AssessRisk(table, []string{"a", "b"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, assessment.Score, 0.0)
	assert.LessOrEqual(t, assessment.Score, 100.0)
	// One duplicated tuple exists, so the score cannot be 100.
	assert.Less(t, assessment.Score, 100.0)
}

func TestAssessRiskEmptyTable(t *testing.T) {
	engine := newTestEngine()

	table := models.NewTable([]string{"a"})

	_, err := engine.AssessRisk(table, []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.IsDataError(err))
}

func TestAssessRiskEmptyQuasiSet(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"a"}, []models.Value{models.Num(1)})

	_, err := engine.AssessRisk(table, nil)
	require.Error(t, err)
	assert.True(t, errors.IsDataError(err))
}

func TestAssessRiskUnknownColumn(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"a"}, []models.Value{models.Num(1)})

	_, err := engine.AssessRisk(table, []string{"nope"})
	require.Error(t, err)
	assert.True(t, errors.IsDataError(err))
	assert.Contains(t, err.Error(), "nope")
}

func TestAssessRiskMissingValueSentinel(t *testing.T) {
	engine := newTestEngine()

	// Rows 1 and 2 are both missing the zip; they must group together and
	// stay distinct from row 3, which has a real zip.
	table := tableFromRows([]string{"age", "zip"},
		[]models.Value{models.Num(30), models.Missing()},
		[]models.Value{models.Num(30), models.Missing()},
		[]models.Value{models.Num(30), models.Str("10001")},
	)

	assessment, err := engine.AssessRisk(table, []string{"age", "zip"})
	require.NoError(t, err)
	assert.Equal(t, 1, assessment.UniqueRows)
}

func TestAssessRiskMissingDistinctFromEmptyString(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"zip"},
		[]models.Value{models.Missing()},
		[]models.Value{models.Str("")},
	)

	assessment, err := engine.AssessRisk(table, []string{"zip"})
	require.NoError(t, err)
	assert.Equal(t, 2, assessment.UniqueRows)
}

func TestAssessRiskDoesNotMutateInput(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"a"},
		[]models.Value{models.Num(1)},
		[]models.Value{models.Num(2)},
	)
	_, err := engine.AssessRisk(table, []string{"a"})
	require.NoError(t, err)

	assert.Equal(t, models.Num(1), table.Rows[0][0])
	assert.Equal(t, models.Num(2), table.Rows[1][0])
}
