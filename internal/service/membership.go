package service

import (
	"context"

	"github.com/shopspring/decimal"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

var hundredPercent = decimal.NewFromInt(100)

type membershipService struct {
	settings    SettingsResolver
	staticTiers []domain.MembershipTierSetting
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
}

func NewMembershipService(
	settings SettingsResolver,
	staticTiers []domain.MembershipTierSetting,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
) MembershipService {
	return &membershipService{
		settings:    settings,
		staticTiers: sortTiers(staticTiers),
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
	}
}

// IsTierUpgrade reports whether next ranks strictly above prev.
func IsTierUpgrade(prev, next domain.MembershipTier) bool {
	return next.Rank() > prev.Rank()
}

// tierFor returns the highest tier whose minimum spend does not exceed spend. tiers must be
// sorted ascending.
func tierFor(tiers []domain.MembershipTierSetting, spend decimal.Decimal) (domain.MembershipTierSetting, int) {
	current := domain.MembershipTierSetting{Tier: domain.MembershipTierBronze}
	idx := -1
	for i, t := range tiers {
		if spend.GreaterThanOrEqual(t.MinSpend) {
			current = t
			idx = i
		}
	}
	return current, idx
}

func (s *membershipService) ResolveTier(ctx context.Context, totalSpend decimal.Decimal) (domain.MembershipTier, error) {
	tiers, _, err := s.settings.MembershipTiers(ctx)
	if err != nil {
		return "", err
	}
	t, _ := tierFor(tiers, totalSpend)
	return t.Tier, nil
}

func (s *membershipService) GetTierInfo(ctx context.Context, totalSpend decimal.Decimal) (*domain.TierInfo, error) {
	tiers, _, err := s.settings.MembershipTiers(ctx)
	if err != nil {
		return nil, err
	}
	current, idx := tierFor(tiers, totalSpend)

	info := &domain.TierInfo{
		Tier:                   current.Tier,
		Discount:               current.DiscountPercent,
		TotalSpend:             totalSpend,
		SpendNeededForNextTier: decimal.Zero,
	}
	for _, next := range tiers[idx+1:] {
		if next.Tier.Rank() <= current.Tier.Rank() {
			continue
		}
		info.NextTier = &next.Tier
		info.SpendNeededForNextTier = next.MinSpend.Sub(totalSpend)
		break
	}
	return info, nil
}

// DiscountForTier looks the tier up in the resolved table and falls back to the static
// table when the resolved table lacks it.
func (s *membershipService) DiscountForTier(ctx context.Context, tier domain.MembershipTier) (decimal.Decimal, error) {
	if !tier.Valid() {
		return decimal.Zero, domain.ValidationError("unknown membership tier %q", tier)
	}
	tiers, _, err := s.settings.MembershipTiers(ctx)
	if err == nil {
		for _, t := range tiers {
			if t.Tier == tier {
				return t.DiscountPercent, nil
			}
		}
	} else {
		logger.Warn("Membership tiers unavailable, using static discount", "tier", tier, "error", err)
	}
	for _, t := range s.staticTiers {
		if t.Tier == tier {
			return t.DiscountPercent, nil
		}
	}
	return decimal.Zero, nil
}

func (s *membershipService) GetCustomerTier(ctx context.Context, customerID int32) (*domain.TierInfo, error) {
	spend, err := s.paymentRepo.SumSucceededByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.GetTierInfo(ctx, spend)
}

func (s *membershipService) RefreshCustomerTier(ctx context.Context, customerID int32) (domain.MembershipTier, bool, error) {
	logger.EnterMethod("membershipService.RefreshCustomerTier", "customerID", customerID)

	profile, err := s.userRepo.GetProfile(ctx, customerID)
	if err != nil {
		logger.ExitMethodWithError("membershipService.RefreshCustomerTier", err)
		return "", false, err
	}
	spend, err := s.paymentRepo.SumSucceededByCustomer(ctx, customerID)
	if err != nil {
		logger.ExitMethodWithError("membershipService.RefreshCustomerTier", err)
		return "", false, err
	}
	tier, err := s.ResolveTier(ctx, spend)
	if err != nil {
		logger.ExitMethodWithError("membershipService.RefreshCustomerTier", err)
		return "", false, err
	}

	upgraded := IsTierUpgrade(profile.LastKnownTier, tier)
	if tier != profile.LastKnownTier {
		if err := s.userRepo.UpdateLastKnownTier(ctx, customerID, tier); err != nil {
			logger.ExitMethodWithError("membershipService.RefreshCustomerTier", err)
			return "", false, err
		}
	}

	logger.ExitMethod("membershipService.RefreshCustomerTier", "tier", tier, "upgraded", upgraded)
	return tier, upgraded, nil
}
