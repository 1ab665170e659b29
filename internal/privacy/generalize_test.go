package privacy

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedata/safedata/pkg/constants"
	"github.com/safedata/safedata/pkg/errors"
	"github.com/safedata/safedata/pkg/models"
)

func TestBucketLabel(t *testing.T) {
	tests := []struct {
		value    models.Value
		width    int
		expected string
	}{
		{models.Num(34), 10, "30-39"},
		{models.Num(30), 10, "30-39"},
		{models.Num(39), 10, "30-39"},
		{models.Num(40), 10, "40-49"},
		{models.Num(0), 10, "0-9"},
		{models.Num(99), 10, "90-99"},
		{models.Num(22), 5, "20-24"},
		{models.Num(25), 5, "25-29"},
		{models.Num(-1), 10, constants.UnknownBucketLabel},
		{models.Str("not a number"), 10, constants.UnknownBucketLabel},
		{models.Str("34"), 10, "30-39"}, // dirty column, clean cell
	}

	for _, tt := range tests {
		t.Run(tt.expected+"_"+tt.value.Format(), func(t *testing.T) {
			assert.Equal(t, tt.expected, BucketLabel(tt.value, tt.width))
		})
	}
}

func TestBucketLabelMonotonic(t *testing.T) {
	prev := -1
	for age := 0; age < 130; age++ {
		label := BucketLabel(models.Num(float64(age)), 10)
		lo, err := strconv.Atoi(strings.SplitN(label, "-", 2)[0])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, lo, prev, "bucket start must never decrease (age %d)", age)
		prev = lo
	}
}

func TestBucketLabelIdempotentOnLowerBound(t *testing.T) {
	// Re-bucketing a bucket's lower bound reproduces the same bucket.
	for _, age := range []float64{5, 34, 40, 67, 99} {
		label := BucketLabel(models.Num(age), 10)
		lo, err := strconv.Atoi(strings.SplitN(label, "-", 2)[0])
		require.NoError(t, err)
		assert.Equal(t, label, BucketLabel(models.Num(float64(lo)), 10))
	}
}

func TestGeneralizeAge(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"age", "name"},
		[]models.Value{models.Num(34), models.Str("a")},
		[]models.Value{models.Num(41), models.Str("b")},
		[]models.Value{models.Num(-3), models.Str("c")},
		[]models.Value{models.Missing(), models.Str("d")},
	)

	generalized, err := engine.GeneralizeAge(table, "age", 10)
	require.NoError(t, err)

	assert.Equal(t, models.Str("30-39"), generalized.Rows[0][0])
	assert.Equal(t, models.Str("40-49"), generalized.Rows[1][0])
	assert.Equal(t, models.Str(constants.UnknownBucketLabel), generalized.Rows[2][0])
	assert.True(t, generalized.Rows[3][0].IsMissing())

	// Other columns and the input table are untouched.
	assert.Equal(t, models.Str("b"), generalized.Rows[1][1])
	assert.Equal(t, models.Num(34), table.Rows[0][0])
}

func TestGeneralizeAgeDefaultWidth(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"age"}, []models.Value{models.Num(34)})

	generalized, err := engine.GeneralizeAge(table, "age", 0)
	require.NoError(t, err)
	assert.Equal(t, models.Str("30-39"), generalized.Rows[0][0])
}

func TestGeneralizeAgeNegativeWidth(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"age"}, []models.Value{models.Num(34)})

	_, err := engine.GeneralizeAge(table, "age", -5)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestGeneralizeAgeUnknownColumn(t *testing.T) {
	engine := newTestEngine()

	table := tableFromRows([]string{"age"}, []models.Value{models.Num(34)})

	_, err := engine.GeneralizeAge(table, "years", 10)
	require.Error(t, err)
	assert.True(t, errors.IsDataError(err))
}

func TestGeneralizeAgePure(t *testing.T) {
	// Identical ages always map to identical buckets.
	for w := 1; w <= 25; w++ {
		for age := 0; age < 120; age += 7 {
			a := BucketLabel(models.Num(float64(age)), w)
			b := BucketLabel(models.Num(float64(age)), w)
			require.Equal(t, a, b, fmt.Sprintf("width %d age %d", w, age))
		}
	}
}
