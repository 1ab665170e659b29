package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedata/safedata/pkg/errors"
	"github.com/safedata/safedata/pkg/models"
)

func TestLinkageRisk(t *testing.T) {
	engine := newTestEngine()

	micro := tableFromRows([]string{"age", "district", "income"},
		[]models.Value{models.Num(34), models.Str("north"), models.Num(1000)},
		[]models.Value{models.Num(40), models.Str("south"), models.Num(2000)},
		[]models.Value{models.Num(55), models.Str("east"), models.Num(3000)},
		[]models.Value{models.Num(60), models.Str("west"), models.Num(4000)},
	)
	trueIDs := tableFromRows([]string{"name", "age", "district"},
		[]models.Value{models.Str("alice"), models.Num(34), models.Str("north")},
		[]models.Value{models.Str("bob"), models.Num(55), models.Str("east")},
		[]models.Value{models.Str("carol"), models.Num(70), models.Str("north")},
	)

	result, err := engine.LinkageRisk(micro, trueIDs, []string{"age", "district"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.MatchedRecords)
	assert.Equal(t, 4, result.TotalRecords)
	assert.InDelta(t, 50.0, result.Risk, 1e-9)
}

func TestLinkageRiskDropsAfterGeneralization(t *testing.T) {
	engine := newTestEngine()

	micro := tableFromRows([]string{"age", "district"},
		[]models.Value{models.Num(34), models.Str("north")},
		[]models.Value{models.Num(40), models.Str("south")},
	)
	trueIDs := tableFromRows([]string{"age", "district"},
		[]models.Value{models.Num(34), models.Str("north")},
		[]models.Value{models.Num(40), models.Str("south")},
	)

	before, err := engine.LinkageRisk(micro, trueIDs, []string{"age", "district"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, before.Risk)

	// Bucket labels no longer equal the raw ages, so nothing links.
	generalized, err := engine.GeneralizeAge(micro, "age", 10)
	require.NoError(t, err)

	after, err := engine.LinkageRisk(generalized, trueIDs, []string{"age", "district"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, after.Risk)
}

func TestLinkageRiskMissingColumns(t *testing.T) {
	engine := newTestEngine()

	micro := tableFromRows([]string{"age"}, []models.Value{models.Num(34)})
	trueIDs := tableFromRows([]string{"district"}, []models.Value{models.Str("north")})

	_, err := engine.LinkageRisk(micro, trueIDs, []string{"age", "district"})
	require.Error(t, err)
	assert.True(t, errors.IsDataError(err))
	assert.Contains(t, err.Error(), "district")
	assert.Contains(t, err.Error(), "age")
}

func TestLinkageRiskMissingValuesLink(t *testing.T) {
	engine := newTestEngine()

	micro := tableFromRows([]string{"age", "district"},
		[]models.Value{models.Missing(), models.Str("north")},
	)
	trueIDs := tableFromRows([]string{"age", "district"},
		[]models.Value{models.Missing(), models.Str("north")},
	)

	result, err := engine.LinkageRisk(micro, trueIDs, []string{"age", "district"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchedRecords)
}

func TestLinkageRiskEmptyInputs(t *testing.T) {
	engine := newTestEngine()
	filled := tableFromRows([]string{"age"}, []models.Value{models.Num(1)})
	empty := models.NewTable([]string{"age"})

	_, err := engine.LinkageRisk(empty, filled, []string{"age"})
	assert.True(t, errors.IsDataError(err))

	_, err = engine.LinkageRisk(filled, empty, []string{"age"})
	assert.True(t, errors.IsDataError(err))

	_, err = engine.LinkageRisk(filled, filled, nil)
	assert.True(t, errors.IsDataError(err))
}
