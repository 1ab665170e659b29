package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	err := NewDataError(CodeEmptyTable, "cannot assess risk of an empty table")
	assert.Equal(t, "EMPTY_TABLE: cannot assess risk of an empty table", err.Error())

	err = err.WithDetails("0 rows")
	assert.Equal(t, "EMPTY_TABLE: cannot assess risk of an empty table - 0 rows", err.Error())
}

func TestAppErrorIs(t *testing.T) {
	err := NewDataError(CodeEmptyTable, "cannot assess risk of an empty table")

	assert.True(t, errors.Is(err, NewDataError(CodeEmptyTable, "different message")))
	assert.False(t, errors.Is(err, NewDataError(CodeColumnNotFound, "x")))
	assert.False(t, errors.Is(err, NewConfigError(CodeEmptyTable, "x")))
	assert.False(t, errors.Is(err, errors.New("plain")))
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := fmt.Errorf("read: unexpected EOF")
	err := WrapError(cause, ErrorTypeData, CodeMalformedCSV, "failed to parse CSV input")

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsDataError(err))

	wrapped := fmt.Errorf("loading dataset: %w", err)
	assert.True(t, IsDataError(wrapped))
}

func TestErrorTypePredicates(t *testing.T) {
	assert.True(t, IsConfigError(NewConfigError(CodeInvalidNoiseScale, "noise scale must be positive")))
	assert.False(t, IsConfigError(NewDataError(CodeEmptyTable, "empty")))
	assert.False(t, IsDataError(nil))
	assert.False(t, IsDataError(errors.New("plain")))
}

func TestDefaultHTTPStatus(t *testing.T) {
	assert.Equal(t, 422, NewDataError(CodeEmptyTable, "x").HTTPStatus)
	assert.Equal(t, 400, NewConfigError(CodeInvalidInput, "x").HTTPStatus)
	assert.Equal(t, 404, NewStorageError(CodeSessionNotFound, "x").HTTPStatus)
	assert.Equal(t, 500, NewInternalError("x").HTTPStatus)
}

func TestWithContext(t *testing.T) {
	err := NewStorageError(CodeSessionNotFound, "session not found").
		WithContext("session_id", "s1").
		WithContext("backend", "memory")

	require.NotNil(t, err.Context)
	assert.Equal(t, "s1", err.Context["session_id"])
	assert.Equal(t, "memory", err.Context["backend"])
}
