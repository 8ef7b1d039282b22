package token

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestQualifyRank(t *testing.T) {
	cases := []struct {
		direct   int
		maxDepth int
		want     Rank
	}{
		{12, 10, RankDiamond},
		{20, 15, RankDiamond},
		{8, 10, RankPlatinum},
		{11, 10, RankPlatinum},
		{6, 10, RankGold},
		{5, 10, RankBronze},
		{4, 10, RankNone},
		{12, 9, RankNone},
		{0, 0, RankNone},
	}
	for _, tc := range cases {
		if got := QualifyRank(tc.direct, tc.maxDepth); got != tc.want {
			t.Fatalf("direct=%d depth=%d: expected %s, got %s", tc.direct, tc.maxDepth, tc.want, got)
		}
	}
}

func TestRankBonusAmounts(t *testing.T) {
	cases := []struct {
		rank  Rank
		bonus int64
	}{
		{RankBronze, 690},
		{RankSilver, 2484},
		{RankGold, 4830},
		{RankPlatinum, 8832},
		{RankDiamond, 14904},
	}
	for _, tc := range cases {
		if got := RankBonus(tc.rank); !got.Equal(decimal.NewFromInt(tc.bonus)) {
			t.Fatalf("%s: expected %d, got %s", tc.rank, tc.bonus, got)
		}
	}
	if got := RankBonus(RankNone); !got.IsZero() {
		t.Fatalf("expected zero bonus for none, got %s", got)
	}
}

func TestSplitRankBonusHalves(t *testing.T) {
	ticAmount, gicAmount := SplitRankBonus(decimal.NewFromInt(690))
	if ticAmount.String() != "345" || gicAmount.String() != "345" {
		t.Fatalf("unexpected split: tic=%s gic=%s", ticAmount, gicAmount)
	}
}

func TestSplitRankBonusAlwaysSums(t *testing.T) {
	for _, rank := range []Rank{RankBronze, RankSilver, RankGold, RankPlatinum, RankDiamond} {
		bonus := RankBonus(rank)
		ticAmount, gicAmount := SplitRankBonus(bonus)
		if !ticAmount.Add(gicAmount).Equal(bonus) {
			t.Fatalf("%s: halves do not sum: %s + %s != %s", rank, ticAmount, gicAmount, bonus)
		}
	}
}
