package token

import "github.com/shopspring/decimal"

// MaxReferralDepth caps the unilevel commission cascade.
const MaxReferralDepth = 15

// CommissionBase is the fixed daily earnings base one account generates for
// its upline: $138 VIP plan x 10% = $13.80 monthly = $0.44 daily. The
// cascade pays rates of this base, not of the variable token accrual.
var CommissionBase = decimal.RequireFromString("0.44")

// CommissionRate returns the unilevel rate for a referrer level:
// level 1 earns 10%, levels 2-6 earn 5%, levels 7-10 earn 2.5%,
// levels 11-15 earn 1%. Levels outside 1..15 earn nothing.
func CommissionRate(level int) decimal.Decimal {
	switch {
	case level == 1:
		return decimal.RequireFromString("0.10")
	case level >= 2 && level <= 6:
		return decimal.RequireFromString("0.05")
	case level >= 7 && level <= 10:
		return decimal.RequireFromString("0.025")
	case level >= 11 && level <= MaxReferralDepth:
		return decimal.RequireFromString("0.01")
	}
	return decimal.Zero
}

// CommissionAmount is the payout for one referrer level on a given base:
// base x rate, at stored precision. On the standard $0.44 base level 1 pays
// $0.044 and level 7 pays $0.011.
func CommissionAmount(base decimal.Decimal, level int) decimal.Decimal {
	return base.Mul(CommissionRate(level)).Round(AmountPrecision)
}
