package token

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Plan string

const (
	PlanStarter Plan = "starter"
	PlanVIP     Plan = "vip"
)

var ErrUnknownPlan = errors.New("unknown plan")

// Yearly TIC allocation per plan.
var yearlyAllocations = map[Plan]decimal.Decimal{
	PlanVIP:     decimal.NewFromInt(6900),
	PlanStarter: decimal.NewFromInt(500),
}

var daysPerYear = decimal.NewFromInt(365)

func ParsePlan(raw string) (Plan, error) {
	switch Plan(raw) {
	case PlanStarter, PlanVIP:
		return Plan(raw), nil
	}
	return "", ErrUnknownPlan
}

// YearlyAllocation returns the plan's TIC allocation for a full year.
func YearlyAllocation(plan Plan) (decimal.Decimal, error) {
	allocation, ok := yearlyAllocations[plan]
	if !ok {
		return decimal.Zero, ErrUnknownPlan
	}
	return allocation, nil
}

// DailyAccrual is the per-day TIC entitlement of one subscription:
// yearly allocation / 365, at stored precision. VIP accrues 18.90410959,
// starter 1.36986301.
func DailyAccrual(plan Plan) (decimal.Decimal, error) {
	allocation, err := YearlyAllocation(plan)
	if err != nil {
		return decimal.Zero, err
	}
	return allocation.DivRound(daysPerYear, AmountPrecision), nil
}

// CommissionLevelCap is how far up the referral chain a user's earnings
// reach: starter plans unlock level 1 only, a vip plan unlocks all 15.
func CommissionLevelCap(hasVIP bool) int {
	if hasVIP {
		return MaxReferralDepth
	}
	return 1
}
