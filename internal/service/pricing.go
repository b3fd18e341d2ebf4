package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
	"warehub-backend/internal/utils"
)

// PricingDefaults fill in what neither the request nor the rule specifies.
type PricingDefaults struct {
	AreaMinimumSqFt int32
	PalletMonths    int32
	AreaMonths      int32
}

type pricingService struct {
	settings    SettingsResolver
	membership  MembershipService
	bookingRepo repository.BookingRepository
	defaults    PricingDefaults
}

func NewPricingService(
	settings SettingsResolver,
	membership MembershipService,
	bookingRepo repository.BookingRepository,
	defaults PricingDefaults,
) PricingService {
	if defaults.AreaMinimumSqFt == 0 {
		defaults.AreaMinimumSqFt = 40000
	}
	if defaults.PalletMonths == 0 {
		defaults.PalletMonths = 1
	}
	if defaults.AreaMonths == 0 {
		defaults.AreaMonths = 12
	}
	return &pricingService{
		settings:    settings,
		membership:  membership,
		bookingRepo: bookingRepo,
		defaults:    defaults,
	}
}

func (s *pricingService) checkBounds(rule *domain.PricingRule, bookingType domain.BookingType, quantity int32) error {
	if quantity <= 0 {
		return domain.ValidationError("quantity must be positive")
	}
	if bookingType == domain.BookingTypeAreaRental {
		minimum := s.defaults.AreaMinimumSqFt
		if rule.MinQuantity != nil {
			minimum = *rule.MinQuantity
		}
		if quantity < minimum {
			return domain.MinimumQuantityError(minimum, quantity)
		}
	} else if rule.MinQuantity != nil && quantity < *rule.MinQuantity {
		return domain.ValidationError("quantity %d is below the warehouse minimum of %d", quantity, *rule.MinQuantity)
	}
	if rule.MaxQuantity != nil && quantity > *rule.MaxQuantity {
		return domain.ValidationError("quantity %d exceeds the warehouse maximum of %d", quantity, *rule.MaxQuantity)
	}
	return nil
}

func (s *pricingService) ValidateQuantity(ctx context.Context, warehouseID int32, bookingType domain.BookingType, quantity int32) error {
	rule, _, err := s.settings.PricingRule(ctx, warehouseID, bookingType)
	if err != nil {
		return err
	}
	return s.checkBounds(rule, bookingType, quantity)
}

func (s *pricingService) membershipPercent(ctx context.Context, tier *domain.MembershipTier) (domain.MembershipTier, decimal.Decimal) {
	resolved := domain.MembershipTierBronze
	if tier != nil && tier.Valid() {
		resolved = *tier
	}
	pct, err := s.membership.DiscountForTier(ctx, resolved)
	if err != nil {
		logger.Warn("Membership discount unavailable, applying none", "tier", resolved, "error", err)
		return resolved, decimal.Zero
	}
	return resolved, pct
}

func (s *pricingService) CalculatePalletPricing(ctx context.Context, in domain.PricingInput) (*domain.PricingResult, error) {
	if in.Type != domain.BookingTypePallet {
		return nil, domain.ValidationError("pallet pricing requested for %s booking", in.Type)
	}
	return s.calculate(ctx, in)
}

func (s *pricingService) CalculateAreaRentalPricing(ctx context.Context, in domain.PricingInput) (*domain.PricingResult, error) {
	if in.Type != domain.BookingTypeAreaRental {
		return nil, domain.ValidationError("area rental pricing requested for %s booking", in.Type)
	}
	return s.calculate(ctx, in)
}

func (s *pricingService) calculate(ctx context.Context, in domain.PricingInput) (*domain.PricingResult, error) {
	logger.EnterMethod("pricingService.calculate", "warehouseID", in.WarehouseID, "type", in.Type, "quantity", in.Quantity)

	rule, source, err := s.settings.PricingRule(ctx, in.WarehouseID, in.Type)
	if err != nil {
		logger.ExitMethodWithError("pricingService.calculate", err)
		return nil, err
	}
	// Bounds come first so an undersized area rental fails before any amount is computed
	if err := s.checkBounds(rule, in.Type, in.Quantity); err != nil {
		logger.ExitMethodWithError("pricingService.calculate", err)
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		logger.ExitMethodWithError("pricingService.calculate", err)
		return nil, err
	}

	months := s.defaults.PalletMonths
	if in.Type == domain.BookingTypeAreaRental {
		months = s.defaults.AreaMonths
	}
	if in.Months != nil {
		months = *in.Months
	}
	periods, err := utils.PeriodsForMonths(rule.Unit, months)
	if err != nil {
		logger.ExitMethodWithError("pricingService.calculate", err)
		return nil, domain.ValidationError("%v", err)
	}

	quantity := decimal.NewFromInt32(in.Quantity)
	base := quantity.Mul(rule.BasePrice).Mul(periods)

	volumePct := decimal.Zero
	if in.Type == domain.BookingTypePallet {
		volumePct = utils.ClampPercent(utils.SelectVolumeDiscount(rule.VolumeDiscounts, in.ExistingQuantity+in.Quantity))
	}
	tier, memberPct := s.membershipPercent(ctx, in.MembershipTier)
	memberPct = utils.ClampPercent(memberPct)

	c := utils.ApplyDiscounts(base, volumePct, memberPct)

	label := "Pallet storage"
	if in.Type == domain.BookingTypeAreaRental {
		label = "Area rental"
	}
	breakdown := []domain.BreakdownLine{{
		Description: fmt.Sprintf("%s (%d x %d months)", label, in.Quantity, months),
		Quantity:    quantity.Mul(periods).Round(4),
		UnitPrice:   rule.BasePrice,
		Amount:      c.BaseAmount,
	}}
	if c.VolumeDiscount.IsPositive() {
		breakdown = append(breakdown, domain.BreakdownLine{
			Description: fmt.Sprintf("Volume discount (%s%%)", volumePct.String()),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   c.VolumeDiscount.Neg(),
			Amount:      c.VolumeDiscount.Neg(),
		})
	}
	if c.MembershipDiscount.IsPositive() {
		breakdown = append(breakdown, domain.BreakdownLine{
			Description: fmt.Sprintf("Membership discount (%s, %s%%)", tier, memberPct.String()),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   c.MembershipDiscount.Neg(),
			Amount:      c.MembershipDiscount.Neg(),
		})
	}

	result := &domain.PricingResult{
		BookingType:               in.Type,
		Quantity:                  in.Quantity,
		Rate:                      rule.BasePrice,
		Unit:                      rule.Unit,
		Months:                    months,
		Periods:                   periods.Round(4),
		BaseAmount:                c.BaseAmount,
		VolumeDiscount:            c.VolumeDiscount,
		VolumeDiscountPercent:     volumePct,
		MembershipDiscount:        c.MembershipDiscount,
		MembershipDiscountPercent: memberPct,
		MembershipTier:            tier,
		Subtotal:                  c.BaseAmount,
		TotalDiscount:             c.TotalDiscount,
		TotalDiscountPercent:      c.TotalDiscountPercent,
		FinalAmount:               c.FinalAmount,
		Breakdown:                 breakdown,
		RateSource:                source,
	}

	logger.ExitMethod("pricingService.calculate", "final", result.FinalAmount.String(), "source", source)
	return result, nil
}

func (s *pricingService) QuotePricing(ctx context.Context, in domain.PricingInput) (*domain.PricingResult, error) {
	if in.CustomerID != 0 {
		if in.Type == domain.BookingTypePallet && in.ExistingQuantity == 0 {
			existing, err := s.bookingRepo.SumActivePallets(ctx, in.CustomerID, in.WarehouseID)
			if err != nil {
				return nil, err
			}
			in.ExistingQuantity = existing
		}
		if in.MembershipTier == nil {
			info, err := s.membership.GetCustomerTier(ctx, in.CustomerID)
			if err != nil {
				logger.Warn("Customer tier lookup failed, pricing without membership discount", "customerID", in.CustomerID, "error", err)
			} else {
				in.MembershipTier = &info.Tier
			}
		}
	}

	switch in.Type {
	case domain.BookingTypePallet:
		return s.CalculatePalletPricing(ctx, in)
	case domain.BookingTypeAreaRental:
		return s.CalculateAreaRentalPricing(ctx, in)
	default:
		return nil, domain.ValidationError("unknown booking type %q", in.Type)
	}
}
