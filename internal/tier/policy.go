package tier

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
)

// threshold is the minimum point balance for a tier.
type threshold struct {
	min  int64
	tier enums.Tier
}

// Descending so the first match wins.
var thresholds = []threshold{
	{min: 10000, tier: enums.TierDiamond},
	{min: 5000, tier: enums.TierPlatinum},
	{min: 2500, tier: enums.TierGold},
	{min: 1000, tier: enums.TierSilver},
	{min: 0, tier: enums.TierBronze},
}

var multipliers = map[enums.Tier]decimal.Decimal{
	enums.TierBronze:   decimal.NewFromInt(1),
	enums.TierSilver:   decimal.RequireFromString("1.1"),
	enums.TierGold:     decimal.RequireFromString("1.25"),
	enums.TierPlatinum: decimal.RequireFromString("1.5"),
	enums.TierDiamond:  decimal.NewFromInt(2),
}

// For maps a point balance to its tier. Must be re-evaluated after
// every balance change; never cached across mutations.
func For(points int64) enums.Tier {
	for _, t := range thresholds {
		if points >= t.min {
			return t.tier
		}
	}
	return enums.TierBronze
}

// Multiplier returns the earn multiplier for a tier. Unknown tiers
// earn at the bronze rate.
func Multiplier(t enums.Tier) decimal.Decimal {
	if m, ok := multipliers[t]; ok {
		return m
	}
	return multipliers[enums.TierBronze]
}

// Next returns the tier above the given balance and the points still
// needed to reach it. ok is false at the top tier.
func Next(points int64) (next enums.Tier, needed int64, ok bool) {
	for i := len(thresholds) - 2; i >= 0; i-- {
		if points < thresholds[i].min {
			return thresholds[i].tier, thresholds[i].min - points, true
		}
	}
	return "", 0, false
}

// PointsFor computes floor(amount x multiplier) for the given tier.
func PointsFor(amount decimal.Decimal, t enums.Tier) int64 {
	return amount.Mul(Multiplier(t)).Floor().IntPart()
}
