package services

import (
	"math"

	"github.com/shopspring/decimal"
)

// Tier is one row of the loyalty tier lookup table.
type Tier struct {
	Name       string   `json:"name"`
	MinPoints  int      `json:"minPoints"`
	Multiplier float64  `json:"multiplier"`
	Benefits   []string `json:"benefits"`
}

// Tiers is ordered by ascending threshold on lifetime points.
var Tiers = []Tier{
	{
		Name:       "Bronze",
		MinPoints:  0,
		Multiplier: 1.0,
		Benefits:   []string{"1 point per $1 spent", "Birthday bonus points"},
	},
	{
		Name:       "Silver",
		MinPoints:  1000,
		Multiplier: 1.25,
		Benefits:   []string{"1.25 points per $1 spent", "Birthday bonus points", "Free standard shipping"},
	},
	{
		Name:       "Gold",
		MinPoints:  5000,
		Multiplier: 1.5,
		Benefits:   []string{"1.5 points per $1 spent", "Priority service booking", "Free standard shipping", "Exclusive member events"},
	},
	{
		Name:       "Platinum",
		MinPoints:  15000,
		Multiplier: 2.0,
		Benefits:   []string{"2 points per $1 spent", "Priority service booking", "Free express shipping", "Dedicated support line", "Annual service check included"},
	},
}

// TierFor returns the highest tier whose threshold lifetime points reach.
func TierFor(lifetimePoints int) Tier {
	current := Tiers[0]
	for _, t := range Tiers {
		if lifetimePoints >= t.MinPoints {
			current = t
		}
	}
	return current
}

// TierByName falls back to the base tier for unknown names.
func TierByName(name string) Tier {
	for _, t := range Tiers {
		if t.Name == name {
			return t
		}
	}
	return Tiers[0]
}

func nextTier(name string) (Tier, bool) {
	for i, t := range Tiers {
		if t.Name == name && i+1 < len(Tiers) {
			return Tiers[i+1], true
		}
	}
	return Tier{}, false
}

// TierProgress is the loyalty summary shown on the loyalty page.
type TierProgress struct {
	Points           int      `json:"points"`
	LifetimePoints   int      `json:"lifetimePoints"`
	Tier             string   `json:"tier"`
	NextTier         string   `json:"nextTier,omitempty"`
	PointsToNextTier int      `json:"pointsToNextTier"`
	ProgressPercent  float64  `json:"progressPercent"`
	Multiplier       float64  `json:"multiplier"`
	Benefits         []string `json:"benefits"`
}

func ProgressFor(balance, lifetimePoints int) TierProgress {
	current := TierFor(lifetimePoints)
	progress := TierProgress{
		Points:          balance,
		LifetimePoints:  lifetimePoints,
		Tier:            current.Name,
		Multiplier:      current.Multiplier,
		Benefits:        current.Benefits,
		ProgressPercent: 100,
	}

	next, ok := nextTier(current.Name)
	if !ok {
		return progress
	}

	span := next.MinPoints - current.MinPoints
	progress.NextTier = next.Name
	progress.PointsToNextTier = next.MinPoints - lifetimePoints
	progress.ProgressPercent = math.Round(float64(lifetimePoints-current.MinPoints)/float64(span)*1000) / 10
	return progress
}

// PointsForPurchase awards one point per whole currency unit, scaled by the tier multiplier.
func PointsForPurchase(total decimal.Decimal, tierName string) int {
	if !total.IsPositive() {
		return 0
	}
	base := total.Floor()
	points := base.Mul(decimal.NewFromFloat(TierByName(tierName).Multiplier)).Floor()
	return int(points.IntPart())
}
