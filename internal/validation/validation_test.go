package validation_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

func TestErrors(t *testing.T) {
	var errs validation.Errors
	assert.NoError(t, errs.Err())

	errs.Add("status", validation.ReasonRequired)
	errs.Add("amount", validation.ReasonInvalidFormat)

	require.Error(t, errs.Err())
	assert.True(t, errs.Has("status"))
	assert.False(t, errs.Has("type"))
	assert.Equal(t, validation.ReasonInvalidFormat, errs.Reason("amount"))
	assert.Equal(t, "validation failed: status: required, amount: invalid_format", errs.Error())

	wrapped := fmt.Errorf("creating transaction: %w", errs.Err())

	got, ok := validation.As(wrapped)
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", validation.Message(""))
	assert.Equal(t, "This field is required.", validation.Message(validation.ReasonRequired))
	assert.Equal(t, "custom", validation.Message("custom"))
}
