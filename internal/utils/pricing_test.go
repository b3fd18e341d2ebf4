package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehub-backend/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSelectVolumeDiscount(t *testing.T) {
	tiers := []domain.VolumeDiscount{
		{MinQuantity: 100, DiscountPercent: d("5")},
		{MinQuantity: 500, DiscountPercent: d("10")},
	}

	tests := []struct {
		quantity int32
		expected string
	}{
		{99, "0"},
		{100, "5"},
		{499, "5"},
		{500, "10"},
		{510, "10"},
		{0, "0"},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			got := SelectVolumeDiscount(tiers, tt.quantity)
			assert.True(t, d(tt.expected).Equal(got), "quantity %d: got %s", tt.quantity, got)
		})
	}

	t.Run("Unsorted input is not mutated", func(t *testing.T) {
		unsorted := []domain.VolumeDiscount{
			{MinQuantity: 500, DiscountPercent: d("10")},
			{MinQuantity: 100, DiscountPercent: d("5")},
		}
		assert.True(t, d("5").Equal(SelectVolumeDiscount(unsorted, 250)))
		assert.Equal(t, int32(500), unsorted[0].MinQuantity)
	})

	t.Run("No tiers", func(t *testing.T) {
		assert.True(t, SelectVolumeDiscount(nil, 10000).IsZero())
	})
}

func TestApplyDiscounts(t *testing.T) {
	t.Run("Membership compounds on the volume discounted amount", func(t *testing.T) {
		c := ApplyDiscounts(d("1000"), d("10"), d("5"))
		assert.Equal(t, "100.00", c.VolumeDiscount.StringFixed(2))
		assert.Equal(t, "45.00", c.MembershipDiscount.StringFixed(2))
		assert.Equal(t, "855.00", c.FinalAmount.StringFixed(2))
		// base*(1-v-m) would be 850
		assert.False(t, d("850").Equal(c.FinalAmount))
		assert.Equal(t, "14.50", c.TotalDiscountPercent.StringFixed(2))
	})

	t.Run("No discounts", func(t *testing.T) {
		c := ApplyDiscounts(d("17.50"), decimal.Zero, decimal.Zero)
		assert.True(t, c.FinalAmount.Equal(d("17.50")))
		assert.True(t, c.TotalDiscount.IsZero())
	})

	t.Run("Final amount is never negative", func(t *testing.T) {
		for _, pct := range []string{"100", "150", "1000"} {
			c := ApplyDiscounts(d("500"), d(pct), d(pct))
			assert.False(t, c.FinalAmount.IsNegative(), "percent %s", pct)
		}
	})

	t.Run("Zero base", func(t *testing.T) {
		c := ApplyDiscounts(decimal.Zero, d("10"), d("10"))
		assert.True(t, c.FinalAmount.IsZero())
		assert.True(t, c.TotalDiscountPercent.IsZero())
	})
}

func TestPeriodsForMonths(t *testing.T) {
	tests := []struct {
		unit     domain.PriceUnit
		months   int32
		expected string
	}{
		{domain.PriceUnitMonth, 3, "3"},
		{domain.PriceUnitDay, 2, "60"},
		{domain.PriceUnitYear, 12, "1"},
		{domain.PriceUnitWeek, 12, "52"},
	}

	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			got, err := PeriodsForMonths(tt.unit, tt.months)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Round(4).String())
		})
	}

	t.Run("Unknown unit", func(t *testing.T) {
		_, err := PeriodsForMonths("fortnight", 1)
		assert.Error(t, err)
	})
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year     int
		month    time.Month
		expected int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29}, // leap year
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2000, time.February, 29}, // divisible by 400
		{1900, time.February, 28}, // divisible by 100 but not 400
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysInMonth(tt.year, tt.month))
		})
	}
}

func TestBillableMonths(t *testing.T) {
	date := func(y int, m time.Month, day int) time.Time {
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected int32
	}{
		{"Same day", date(2024, 1, 15), date(2024, 1, 15), 1},
		{"Exactly one month", date(2024, 1, 15), date(2024, 2, 14), 1},
		{"Partial second month", date(2024, 1, 15), date(2024, 2, 20), 2},
		{"Full year", date(2024, 1, 1), date(2024, 12, 31), 12},
		{"Across year end", date(2024, 11, 30), date(2025, 2, 28), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			months, err := BillableMonths(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, months)
		})
	}

	t.Run("End before start", func(t *testing.T) {
		_, err := BillableMonths(date(2024, 2, 1), date(2024, 1, 1))
		assert.Error(t, err)
	})
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(time.Date(2024, time.February, 14, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 29, end.Day())
	assert.Equal(t, time.February, end.Month())
}
