package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/repository/postgres"
)

func TestSettingsRepository_GetPricingRule(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewSettingsRepository(db)
	ctx := context.Background()
	cols := []string{"warehouse_id", "booking_type", "base_price", "unit", "min_quantity", "max_quantity", "volume_discounts"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM pricing_rules WHERE warehouse_id = \\$1 AND booking_type = \\$2").
			WithArgs(int32(1), domain.BookingTypePallet).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "pallet", "20.00", "month", nil, 1000,
				[]byte(`[{"min_quantity":100,"discount_percent":"5"},{"min_quantity":500,"discount_percent":"10"}]`)))

		rule, err := repo.GetPricingRule(ctx, 1, domain.BookingTypePallet)
		require.NoError(t, err)
		assert.Equal(t, domain.PriceUnitMonth, rule.Unit)
		assert.Nil(t, rule.MinQuantity)
		require.NotNil(t, rule.MaxQuantity)
		assert.Equal(t, int32(1000), *rule.MaxQuantity)
		require.Len(t, rule.VolumeDiscounts, 2)
		assert.True(t, decimal.NewFromInt(10).Equal(rule.VolumeDiscounts[1].DiscountPercent))
	})

	t.Run("NotConfigured", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM pricing_rules").
			WithArgs(int32(2), domain.BookingTypeAreaRental).
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.GetPricingRule(ctx, 2, domain.BookingTypeAreaRental)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository_ReplaceMembershipTiers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewSettingsRepository(db)
	tiers := []domain.MembershipTierSetting{
		{Tier: domain.MembershipTierBronze, MinSpend: decimal.Zero, DiscountPercent: decimal.Zero},
		{Tier: domain.MembershipTierSilver, MinSpend: decimal.NewFromInt(10000), DiscountPercent: decimal.NewFromInt(5)},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM membership_tiers").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO membership_tiers").
		WithArgs(domain.MembershipTierBronze, decimal.Zero, decimal.Zero).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO membership_tiers").
		WithArgs(domain.MembershipTierSilver, decimal.NewFromInt(10000), decimal.NewFromInt(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.ReplaceMembershipTiers(context.Background(), tiers)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
