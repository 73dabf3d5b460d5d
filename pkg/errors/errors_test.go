package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCapturesTypeAndStack(t *testing.T) {
	err := New(ErrorTypeDimensionMismatch, "shapes differ")
	assert.Equal(t, ErrorTypeDimensionMismatch, err.Type)
	assert.NotEmpty(t, err.Stack)
	assert.Contains(t, err.Error(), "dimension_mismatch")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk gone")
	err := Wrap(cause, ErrorTypeIO, "write matrix")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsType(err, ErrorTypeIO))
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "no-op"))
}

func TestWrapKeepsInnerStack(t *testing.T) {
	inner := New(ErrorTypeMisuse, "cell mutation")
	outer := Wrap(inner, ErrorTypeInternal, "kernel failed")
	assert.Equal(t, inner.Stack, outer.Stack)
}

func TestIsTypeOnForeignError(t *testing.T) {
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeIO))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeValidation, "bad slice").WithDetail("rows", 10)
	assert.Equal(t, 10, err.Details["rows"])
}
