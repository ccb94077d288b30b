package accounting

import (
	"testing"

	"stock-tracker-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate(t *testing.T) {
	a := Allocate([]domain.Holding{
		{Symbol: "AAPL", Quantity: d("10"), AverageCost: d("150")},
		{Symbol: "JKH", Quantity: d("50"), AverageCost: d("10")},
	})
	require.Len(t, a.Slices, 2)
	assert.Equal(t, 2, a.HoldingsCount)
	assertDecimal(t, "2000", a.TotalValue)
	assertDecimal(t, "60", a.OpenShares)

	assert.Equal(t, "AAPL", a.Slices[0].Symbol)
	assertDecimal(t, "1500", a.Slices[0].Value)
	assertDecimal(t, "75", a.Slices[0].Percentage)
	assertDecimal(t, "25", a.Slices[1].Percentage)
}

func TestAllocate_Empty(t *testing.T) {
	a := Allocate(nil)
	assert.Empty(t, a.Slices)
	assert.NotNil(t, a.Slices)
	assert.Equal(t, 0, a.HoldingsCount)
	assertDecimal(t, "0", a.TotalValue)
}

func TestAllocate_RoundsPercentage(t *testing.T) {
	a := Allocate([]domain.Holding{
		{Symbol: "A", Quantity: d("1"), AverageCost: d("1")},
		{Symbol: "B", Quantity: d("1"), AverageCost: d("1")},
		{Symbol: "C", Quantity: d("1"), AverageCost: d("1")},
	})
	for _, s := range a.Slices {
		assertDecimal(t, "33.33", s.Percentage)
	}
}
