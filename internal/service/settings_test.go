package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"warehub-backend/internal/domain"
)

func TestSettingsResolver_PricingRule(t *testing.T) {
	ctx := context.Background()
	stored := &domain.PricingRule{WarehouseID: 1, BookingType: domain.BookingTypePallet, BasePrice: dec("19"), Unit: domain.PriceUnitMonth}

	t.Run("Cache hit skips the store", func(t *testing.T) {
		repo := new(MockSettingsRepo)
		cache := new(MockSettingsCache)
		cache.On("GetPricingRule", mock.Anything, int32(1), domain.BookingTypePallet).Return(stored, true, nil)

		rule, source, err := NewSettingsResolver(repo, cache, testStaticSettings()).PricingRule(ctx, 1, domain.BookingTypePallet)
		require.NoError(t, err)
		assert.Equal(t, domain.SettingSourceCache, source)
		assert.True(t, dec("19").Equal(rule.BasePrice))
		repo.AssertNotCalled(t, "GetPricingRule", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Cache miss reads store and fills cache", func(t *testing.T) {
		repo := new(MockSettingsRepo)
		cache := new(MockSettingsCache)
		cache.On("GetPricingRule", mock.Anything, int32(1), domain.BookingTypePallet).Return(nil, false, nil)
		repo.On("GetPricingRule", mock.Anything, int32(1), domain.BookingTypePallet).Return(stored, nil)
		cache.On("SetPricingRule", mock.Anything, stored).Return(nil)

		_, source, err := NewSettingsResolver(repo, cache, testStaticSettings()).PricingRule(ctx, 1, domain.BookingTypePallet)
		require.NoError(t, err)
		assert.Equal(t, domain.SettingSourceStore, source)
		cache.AssertExpectations(t)
	})

	t.Run("Cache error falls through", func(t *testing.T) {
		repo := new(MockSettingsRepo)
		cache := new(MockSettingsCache)
		cache.On("GetPricingRule", mock.Anything, int32(1), domain.BookingTypePallet).Return(nil, false, errors.New("redis down"))
		repo.On("GetPricingRule", mock.Anything, int32(1), domain.BookingTypePallet).Return(stored, nil)
		cache.On("SetPricingRule", mock.Anything, stored).Return(errors.New("redis down"))

		_, source, err := NewSettingsResolver(repo, cache, testStaticSettings()).PricingRule(ctx, 1, domain.BookingTypePallet)
		require.NoError(t, err)
		assert.Equal(t, domain.SettingSourceStore, source)
	})

	t.Run("Static fallback is scoped to the warehouse", func(t *testing.T) {
		resolver, _ := newStaticResolver()
		rule, source, err := resolver.PricingRule(ctx, 42, domain.BookingTypeAreaRental)
		require.NoError(t, err)
		assert.Equal(t, domain.SettingSourceStatic, source)
		assert.Equal(t, int32(42), rule.WarehouseID)
		assert.Equal(t, domain.PriceUnitYear, rule.Unit)
	})

	t.Run("Unknown booking type", func(t *testing.T) {
		resolver, _ := newStaticResolver()
		_, _, err := resolver.PricingRule(ctx, 1, domain.BookingType("bulk"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestSettingsResolver_MembershipTiersSorted(t *testing.T) {
	repo := new(MockSettingsRepo)
	repo.On("ListMembershipTiers", mock.Anything).Return([]domain.MembershipTierSetting{
		{Tier: domain.MembershipTierGold, MinSpend: dec("50000"), DiscountPercent: dec("10")},
		{Tier: domain.MembershipTierBronze, MinSpend: dec("0"), DiscountPercent: dec("0")},
	}, nil)

	tiers, source, err := NewSettingsResolver(repo, nil, testStaticSettings()).MembershipTiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SettingSourceStore, source)
	require.Len(t, tiers, 2)
	assert.Equal(t, domain.MembershipTierBronze, tiers[0].Tier)
}

func TestSettingsResolver_Updates(t *testing.T) {
	ctx := context.Background()

	t.Run("Rule update bumps cache", func(t *testing.T) {
		repo := new(MockSettingsRepo)
		cache := new(MockSettingsCache)
		rule := &domain.PricingRule{WarehouseID: 1, BookingType: domain.BookingTypePallet, BasePrice: dec("18"), Unit: domain.PriceUnitMonth}
		repo.On("UpsertPricingRule", mock.Anything, rule).Return(nil)
		cache.On("Bump", mock.Anything).Return(nil)

		require.NoError(t, NewSettingsResolver(repo, cache, testStaticSettings()).UpdatePricingRule(ctx, rule))
		cache.AssertCalled(t, "Bump", mock.Anything)
	})

	t.Run("Invalid rules never reach the store", func(t *testing.T) {
		repo := new(MockSettingsRepo)
		resolver := NewSettingsResolver(repo, nil, testStaticSettings())

		bad := []*domain.PricingRule{
			nil,
			{BookingType: domain.BookingTypePallet, BasePrice: dec("0"), Unit: domain.PriceUnitMonth},
			{BookingType: domain.BookingTypePallet, BasePrice: dec("1"), Unit: domain.PriceUnit("fortnight")},
			{BookingType: domain.BookingTypePallet, BasePrice: dec("1"), Unit: domain.PriceUnitMonth, MinQuantity: i32(10), MaxQuantity: i32(5)},
			{BookingType: domain.BookingTypePallet, BasePrice: dec("1"), Unit: domain.PriceUnitMonth, VolumeDiscounts: []domain.VolumeDiscount{{MinQuantity: 10, DiscountPercent: dec("120")}}},
		}
		for _, rule := range bad {
			assert.ErrorIs(t, resolver.UpdatePricingRule(ctx, rule), domain.ErrValidation)
		}
		repo.AssertNotCalled(t, "UpsertPricingRule", mock.Anything, mock.Anything)
	})

	t.Run("Duplicate tiers rejected", func(t *testing.T) {
		repo := new(MockSettingsRepo)
		err := NewSettingsResolver(repo, nil, testStaticSettings()).UpdateMembershipTiers(ctx, []domain.MembershipTierSetting{
			{Tier: domain.MembershipTierGold, MinSpend: dec("1"), DiscountPercent: dec("1")},
			{Tier: domain.MembershipTierGold, MinSpend: dec("2"), DiscountPercent: dec("2")},
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
