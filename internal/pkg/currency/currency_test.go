package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat_USD(t *testing.T) {
	assert.Equal(t, "$1,234.50", Format(decimal.RequireFromString("1234.5"), "USD"))
	assert.Equal(t, "-$12.00", Format(decimal.NewFromInt(-12), "USD"))
	assert.Equal(t, "$0.01", Format(decimal.RequireFromString("0.005"), "USD"))
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(DefaultCode))
	assert.True(t, Known("USD"))
	assert.False(t, Known("NOPE"))
}

func TestFormat_UnknownCodeDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = Format(decimal.NewFromInt(5), "NOPE")
	})
}
