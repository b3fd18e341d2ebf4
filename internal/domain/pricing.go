package domain

import "github.com/shopspring/decimal"

type PriceUnit string

const (
	PriceUnitDay   PriceUnit = "day"
	PriceUnitWeek  PriceUnit = "week"
	PriceUnitMonth PriceUnit = "month"
	PriceUnitYear  PriceUnit = "year"
)

// VolumeDiscount applies DiscountPercent once the cumulative quantity reaches MinQuantity.
type VolumeDiscount struct {
	MinQuantity     int32           `json:"min_quantity" yaml:"min_quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent" yaml:"discount_percent"`
}

type PricingRule struct {
	WarehouseID     int32            `json:"warehouse_id"`
	BookingType     BookingType      `json:"booking_type"`
	BasePrice       decimal.Decimal  `json:"base_price"`
	Unit            PriceUnit        `json:"unit"`
	MinQuantity     *int32           `json:"min_quantity,omitempty"`
	MaxQuantity     *int32           `json:"max_quantity,omitempty"`
	VolumeDiscounts []VolumeDiscount `json:"volume_discounts"`
}

// SettingSource tells where a resolved setting came from.
type SettingSource string

const (
	SettingSourceCache  SettingSource = "cache"
	SettingSourceStore  SettingSource = "store"
	SettingSourceStatic SettingSource = "static"
)

type PricingInput struct {
	WarehouseID int32       `json:"warehouse_id" validate:"required"`
	CustomerID  int32       `json:"customer_id"`
	Type        BookingType `json:"type" validate:"required,oneof=pallet area-rental"`
	Quantity    int32       `json:"quantity" validate:"gt=0"`
	Months      *int32      `json:"months,omitempty" validate:"omitempty,gt=0"`
	// ExistingQuantity is the customer's already active pallet count; pallets only.
	ExistingQuantity int32           `json:"existing_quantity" validate:"gte=0"`
	MembershipTier   *MembershipTier `json:"membership_tier,omitempty"`
}

type BreakdownLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

type PricingResult struct {
	BookingType               BookingType     `json:"booking_type"`
	Quantity                  int32           `json:"quantity"`
	Rate                      decimal.Decimal `json:"rate"`
	Unit                      PriceUnit       `json:"unit"`
	Months                    int32           `json:"months"`
	Periods                   decimal.Decimal `json:"periods"`
	BaseAmount                decimal.Decimal `json:"base_amount"`
	VolumeDiscount            decimal.Decimal `json:"volume_discount"`
	VolumeDiscountPercent     decimal.Decimal `json:"volume_discount_percent"`
	MembershipDiscount        decimal.Decimal `json:"membership_discount"`
	MembershipDiscountPercent decimal.Decimal `json:"membership_discount_percent"`
	MembershipTier            MembershipTier  `json:"membership_tier"`
	Subtotal                  decimal.Decimal `json:"subtotal"`
	TotalDiscount             decimal.Decimal `json:"total_discount"`
	TotalDiscountPercent      decimal.Decimal `json:"total_discount_percent"`
	FinalAmount               decimal.Decimal `json:"final_amount"`
	Breakdown                 []BreakdownLine `json:"breakdown"`
	RateSource                SettingSource   `json:"rate_source"`
}
