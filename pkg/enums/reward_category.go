package enums

import "fmt"

// RewardCategory groups catalog items for browsing and filtering.
type RewardCategory string

const (
	RewardCategoryDiscount         RewardCategory = "discount"
	RewardCategoryFreebie          RewardCategory = "freebie"
	RewardCategoryCashback         RewardCategory = "cashback"
	RewardCategoryExclusiveAccess  RewardCategory = "exclusive_access"
	RewardCategorySweepstakesBonus RewardCategory = "sweepstakes_bonus"
)

var validRewardCategories = []RewardCategory{
	RewardCategoryDiscount,
	RewardCategoryFreebie,
	RewardCategoryCashback,
	RewardCategoryExclusiveAccess,
	RewardCategorySweepstakesBonus,
}

// String implements fmt.Stringer.
func (c RewardCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known RewardCategory.
func (c RewardCategory) IsValid() bool {
	for _, candidate := range validRewardCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseRewardCategory converts raw input into a RewardCategory.
func ParseRewardCategory(value string) (RewardCategory, error) {
	for _, candidate := range validRewardCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reward category %q", value)
}
