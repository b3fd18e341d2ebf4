package domain

import "github.com/shopspring/decimal"

type MembershipTier string

const (
	MembershipTierBronze   MembershipTier = "bronze"
	MembershipTierSilver   MembershipTier = "silver"
	MembershipTierGold     MembershipTier = "gold"
	MembershipTierPlatinum MembershipTier = "platinum"
)

var tierRank = map[MembershipTier]int{
	MembershipTierBronze:   1,
	MembershipTierSilver:   2,
	MembershipTierGold:     3,
	MembershipTierPlatinum: 4,
}

// Rank is the fixed ordinal used for upgrade detection; unknown tiers rank 0.
func (t MembershipTier) Rank() int {
	return tierRank[t]
}

func (t MembershipTier) Valid() bool {
	return t.Rank() > 0
}

type MembershipTierSetting struct {
	Tier            MembershipTier  `json:"tier" yaml:"tier"`
	MinSpend        decimal.Decimal `json:"min_spend" yaml:"min_spend"`
	DiscountPercent decimal.Decimal `json:"discount_percent" yaml:"discount_percent"`
}

type TierInfo struct {
	Tier                   MembershipTier  `json:"tier"`
	Discount               decimal.Decimal `json:"discount"`
	TotalSpend             decimal.Decimal `json:"total_spend"`
	NextTier               *MembershipTier `json:"next_tier,omitempty"`
	SpendNeededForNextTier decimal.Decimal `json:"spend_needed_for_next_tier"`
}
