package service

import (
	"context"
	"errors"
	"sort"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

// SettingsCache is the fast tier of the settings resolver. *cache.SettingsCache implements it.
type SettingsCache interface {
	GetPricingRule(ctx context.Context, warehouseID int32, bookingType domain.BookingType) (*domain.PricingRule, bool, error)
	SetPricingRule(ctx context.Context, rule *domain.PricingRule) error
	GetMembershipTiers(ctx context.Context) ([]domain.MembershipTierSetting, bool, error)
	SetMembershipTiers(ctx context.Context, tiers []domain.MembershipTierSetting) error
	Bump(ctx context.Context) error
}

// StaticSettings are the compiled-in defaults used when no stored setting applies.
type StaticSettings struct {
	PalletRule domain.PricingRule
	AreaRule   domain.PricingRule
	Tiers      []domain.MembershipTierSetting
}

type settingsResolver struct {
	repo   repository.SettingsRepository
	cache  SettingsCache
	static StaticSettings
}

// NewSettingsResolver resolves settings from cache, then the store, then static defaults.
// cache may be nil.
func NewSettingsResolver(repo repository.SettingsRepository, cache SettingsCache, static StaticSettings) SettingsResolver {
	return &settingsResolver{repo: repo, cache: cache, static: static}
}

func (s *settingsResolver) staticRule(warehouseID int32, bookingType domain.BookingType) *domain.PricingRule {
	rule := s.static.PalletRule
	if bookingType == domain.BookingTypeAreaRental {
		rule = s.static.AreaRule
	}
	rule.WarehouseID = warehouseID
	rule.BookingType = bookingType
	rule.VolumeDiscounts = append([]domain.VolumeDiscount(nil), rule.VolumeDiscounts...)
	return &rule
}

func (s *settingsResolver) PricingRule(ctx context.Context, warehouseID int32, bookingType domain.BookingType) (*domain.PricingRule, domain.SettingSource, error) {
	if !bookingType.Valid() {
		return nil, "", domain.ValidationError("unknown booking type %q", bookingType)
	}

	if s.cache != nil {
		rule, found, err := s.cache.GetPricingRule(ctx, warehouseID, bookingType)
		if err != nil {
			logger.Warn("Settings cache read failed", "warehouseID", warehouseID, "type", bookingType, "error", err)
		} else if found {
			return rule, domain.SettingSourceCache, nil
		}
	}

	rule, err := s.repo.GetPricingRule(ctx, warehouseID, bookingType)
	if err == nil {
		if s.cache != nil {
			if err := s.cache.SetPricingRule(ctx, rule); err != nil {
				logger.Warn("Settings cache write failed", "warehouseID", warehouseID, "error", err)
			}
		}
		return rule, domain.SettingSourceStore, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Pricing rule lookup failed, using static rate", "warehouseID", warehouseID, "type", bookingType, "error", err)
	}
	return s.staticRule(warehouseID, bookingType), domain.SettingSourceStatic, nil
}

func sortTiers(tiers []domain.MembershipTierSetting) []domain.MembershipTierSetting {
	sorted := append([]domain.MembershipTierSetting(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinSpend.LessThan(sorted[j].MinSpend)
	})
	return sorted
}

// MembershipTiers returns the tier table sorted by ascending minimum spend.
func (s *settingsResolver) MembershipTiers(ctx context.Context) ([]domain.MembershipTierSetting, domain.SettingSource, error) {
	if s.cache != nil {
		tiers, found, err := s.cache.GetMembershipTiers(ctx)
		if err != nil {
			logger.Warn("Settings cache read failed", "key", "membership", "error", err)
		} else if found && len(tiers) > 0 {
			return sortTiers(tiers), domain.SettingSourceCache, nil
		}
	}

	tiers, err := s.repo.ListMembershipTiers(ctx)
	if err == nil && len(tiers) > 0 {
		if s.cache != nil {
			if err := s.cache.SetMembershipTiers(ctx, tiers); err != nil {
				logger.Warn("Settings cache write failed", "key", "membership", "error", err)
			}
		}
		return sortTiers(tiers), domain.SettingSourceStore, nil
	}
	if err != nil {
		logger.Warn("Membership tier lookup failed, using static tiers", "error", err)
	}
	return sortTiers(s.static.Tiers), domain.SettingSourceStatic, nil
}

func (s *settingsResolver) UpdatePricingRule(ctx context.Context, rule *domain.PricingRule) error {
	if err := validatePricingRule(rule); err != nil {
		return err
	}
	if err := s.repo.UpsertPricingRule(ctx, rule); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *settingsResolver) UpdateMembershipTiers(ctx context.Context, tiers []domain.MembershipTierSetting) error {
	if len(tiers) == 0 {
		return domain.ValidationError("at least one tier is required")
	}
	seen := make(map[domain.MembershipTier]bool, len(tiers))
	for _, t := range tiers {
		if !t.Tier.Valid() {
			return domain.ValidationError("unknown tier %q", t.Tier)
		}
		if seen[t.Tier] {
			return domain.ValidationError("duplicate tier %q", t.Tier)
		}
		seen[t.Tier] = true
		if t.MinSpend.IsNegative() {
			return domain.ValidationError("tier %s minimum spend must not be negative", t.Tier)
		}
		if t.DiscountPercent.IsNegative() || t.DiscountPercent.GreaterThan(hundredPercent) {
			return domain.ValidationError("tier %s discount must be between 0 and 100", t.Tier)
		}
	}
	if err := s.repo.ReplaceMembershipTiers(ctx, tiers); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *settingsResolver) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		logger.Warn("Settings cache invalidation failed", "error", err)
	}
}

func validatePricingRule(rule *domain.PricingRule) error {
	if rule == nil {
		return domain.ValidationError("pricing rule is required")
	}
	if !rule.BookingType.Valid() {
		return domain.ValidationError("unknown booking type %q", rule.BookingType)
	}
	if !rule.BasePrice.IsPositive() {
		return domain.ValidationError("base price must be positive")
	}
	switch rule.Unit {
	case domain.PriceUnitDay, domain.PriceUnitWeek, domain.PriceUnitMonth, domain.PriceUnitYear:
	default:
		return domain.ValidationError("unknown price unit %q", rule.Unit)
	}
	if rule.MinQuantity != nil && *rule.MinQuantity < 0 {
		return domain.ValidationError("minimum quantity must not be negative")
	}
	if rule.MinQuantity != nil && rule.MaxQuantity != nil && *rule.MaxQuantity < *rule.MinQuantity {
		return domain.ValidationError("maximum quantity is below minimum quantity")
	}
	for _, vd := range rule.VolumeDiscounts {
		if vd.MinQuantity <= 0 {
			return domain.ValidationError("volume discount threshold must be positive")
		}
		if vd.DiscountPercent.IsNegative() || vd.DiscountPercent.GreaterThan(hundredPercent) {
			return domain.ValidationError("volume discount must be between 0 and 100")
		}
	}
	return nil
}
