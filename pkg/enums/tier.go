package enums

import "fmt"

// Tier is a loyalty level derived solely from a user's point balance.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
)

// RewardTierAll marks a reward redeemable by every tier.
const RewardTierAll = "all"

var validTiers = []Tier{
	TierBronze,
	TierSilver,
	TierGold,
	TierPlatinum,
	TierDiamond,
}

// String implements fmt.Stringer.
func (t Tier) String() string {
	return string(t)
}

// IsValid reports whether the value is a known Tier.
func (t Tier) IsValid() bool {
	for _, candidate := range validTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTier converts raw input into a Tier.
func ParseTier(value string) (Tier, error) {
	for _, candidate := range validTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier %q", value)
}
