package utils

import (
	"fmt"
	"sort"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"

	"warehub-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// DateDifference represents the difference between two dates
type DateDifference struct {
	Months int
	Days   int
}

// PriceComponents is the sequential discount calculation for one quote.
type PriceComponents struct {
	BaseAmount           decimal.Decimal
	VolumeDiscount       decimal.Decimal
	AfterVolume          decimal.Decimal
	MembershipDiscount   decimal.Decimal
	FinalAmount          decimal.Decimal
	TotalDiscount        decimal.Decimal
	TotalDiscountPercent decimal.Decimal
}

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ClampPercent bounds a discount percentage to [0, 100].
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// PercentOf returns amount * percent / 100 rounded to cents.
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(percent).Div(hundred))
}

// SelectVolumeDiscount returns the percent of the highest threshold the quantity meets
// or exceeds, or zero when none does.
func SelectVolumeDiscount(tiers []domain.VolumeDiscount, quantity int32) decimal.Decimal {
	sorted := make([]domain.VolumeDiscount, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity > sorted[j].MinQuantity
	})
	for _, t := range sorted {
		if quantity >= t.MinQuantity {
			return t.DiscountPercent
		}
	}
	return decimal.Zero
}

// PeriodsPerMonth converts one month into the rule's billing unit.
func PeriodsPerMonth(unit domain.PriceUnit) (decimal.Decimal, error) {
	switch unit {
	case domain.PriceUnitDay:
		return decimal.NewFromInt(30), nil
	case domain.PriceUnitWeek:
		return decimal.NewFromInt(52).Div(decimal.NewFromInt(12)), nil
	case domain.PriceUnitMonth:
		return decimal.NewFromInt(1), nil
	case domain.PriceUnitYear:
		return decimal.NewFromInt(1).Div(decimal.NewFromInt(12)), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown price unit %q", unit)
	}
}

// PeriodsForMonths returns how many billing units a duration of months spans.
func PeriodsForMonths(unit domain.PriceUnit, months int32) (decimal.Decimal, error) {
	perMonth, err := PeriodsPerMonth(unit)
	if err != nil {
		return decimal.Zero, err
	}
	return perMonth.Mul(decimal.NewFromInt32(months)), nil
}

// ApplyDiscounts compounds the discounts: membership is taken from the amount left after
// the volume discount. The final amount never drops below zero.
func ApplyDiscounts(base, volumePercent, membershipPercent decimal.Decimal) PriceComponents {
	base = RoundMoney(base)
	volume := PercentOf(base, ClampPercent(volumePercent))
	afterVolume := base.Sub(volume)
	membership := PercentOf(afterVolume, ClampPercent(membershipPercent))

	final := base.Sub(volume).Sub(membership)
	if final.IsNegative() {
		final = decimal.Zero
	}

	total := volume.Add(membership)
	totalPercent := decimal.Zero
	if base.IsPositive() {
		totalPercent = total.Mul(hundred).Div(base).Round(2)
	}

	return PriceComponents{
		BaseAmount:           base,
		VolumeDiscount:       volume,
		AfterVolume:          afterVolume,
		MembershipDiscount:   membership,
		FinalAmount:          final,
		TotalDiscount:        total,
		TotalDiscountPercent: totalPercent,
	}
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year int, month time.Month) int {
	return now.With(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)).EndOfMonth().Day()
}

// CalculateDateDifference computes the difference between two dates
// Returns (months, days) where both start and end dates are included
func CalculateDateDifference(start, end time.Time) (DateDifference, error) {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC).Before(time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)) {
		return DateDifference{}, fmt.Errorf("end date must be >= start date")
	}

	years := ey - sy
	months := int(em) - int(sm)
	days := ed - sd + 1

	// If days < 0, borrow from months
	if days < 0 {
		months--
		prev := em - 1
		prevYear := ey
		if prev < time.January {
			prev = time.December
			prevYear--
		}
		days += DaysInMonth(prevYear, prev)
	}

	if months < 0 {
		years--
		months += 12
	}

	return DateDifference{Months: months + 12*years, Days: days}, nil
}

// BillableMonths rounds a booking window up to whole months, with a minimum of one.
func BillableMonths(start, end time.Time) (int32, error) {
	diff, err := CalculateDateDifference(start, end)
	if err != nil {
		return 0, err
	}
	months := diff.Months
	if diff.Days > 0 {
		months++
	}
	if months < 1 {
		months = 1
	}
	return int32(months), nil
}

// MonthBounds returns the first and last instant of the calendar month containing t.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	n := now.With(t)
	return n.BeginningOfMonth(), n.EndOfMonth()
}
