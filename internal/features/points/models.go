// Package points implements the loyalty points economy: an append-only
// ledger per chat, purchase rewards tiered by duration, and redemptions
// priced per day.
package points

// durationTier maps a purchased duration (days) to the points awarded.
type durationTier struct {
	maxDays int
	points  int64
}

// Reward tiers, checked in order. Anything above the last threshold earns 20.
var rewardTiers = []durationTier{
	{1, 1},
	{3, 2},
	{5, 4},
	{7, 5},
	{10, 8},
	{15, 12},
	{20, 15},
}

const maxTierPoints = 20

// ForDuration returns the points earned by purchasing a key for the given
// number of days.
func ForDuration(days int) int64 {
	for _, t := range rewardTiers {
		if days <= t.maxDays {
			return t.points
		}
	}
	return maxTierPoints
}

// DefaultCostPerDay is the redemption price in points for one day of access,
// used when no rate is configured.
const DefaultCostPerDay = 12
