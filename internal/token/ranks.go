package token

import "github.com/shopspring/decimal"

// Rank is a monthly qualification tier derived from the size and depth of a
// user's referral network.
type Rank string

const (
	RankNone     Rank = "none"
	RankBronze   Rank = "bronze"
	RankSilver   Rank = "silver"
	RankGold     Rank = "gold"
	RankPlatinum Rank = "platinum"
	RankDiamond  Rank = "diamond"
)

// RankQualificationDepth is the minimum unilevel depth a network must reach
// before any rank bonus applies.
const RankQualificationDepth = 10

var rankBonuses = map[Rank]decimal.Decimal{
	RankBronze:   decimal.NewFromInt(690),
	RankSilver:   decimal.NewFromInt(2484),
	RankGold:     decimal.NewFromInt(4830),
	RankPlatinum: decimal.NewFromInt(8832),
	RankDiamond:  decimal.NewFromInt(14904),
}

// QualifyRank maps a user's direct referral count and deepest unilevel to a
// rank. Silver shares Bronze's direct-referral threshold and its
// distinguishing group-volume criterion is unresolved upstream, so it is
// never auto-awarded here.
func QualifyRank(directReferrals, maxDepth int) Rank {
	if maxDepth < RankQualificationDepth {
		return RankNone
	}
	switch {
	case directReferrals >= 12:
		return RankDiamond
	case directReferrals >= 8:
		return RankPlatinum
	case directReferrals >= 6:
		return RankGold
	case directReferrals >= 5:
		return RankBronze
	}
	return RankNone
}

// RankBonus returns the monthly USD bonus for a rank, zero for RankNone.
func RankBonus(rank Rank) decimal.Decimal {
	bonus, ok := rankBonuses[rank]
	if !ok {
		return decimal.Zero
	}
	return bonus
}

// SplitRankBonus halves a bonus into its TIC and GIC portions. The halves
// always sum to the bonus; an odd cent lands on the TIC side.
func SplitRankBonus(bonus decimal.Decimal) (ticAmount, gicAmount decimal.Decimal) {
	gicAmount = bonus.Div(decimal.NewFromInt(2)).Round(AmountPrecision)
	ticAmount = bonus.Sub(gicAmount)
	return ticAmount, gicAmount
}
