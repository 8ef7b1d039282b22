package token

import "errors"

// WalletField names one balance column of an account. The total wallet is
// the general-purpose spendable balance; tic and gic hold reward tokens,
// partner holds referral commissions.
type WalletField string

const (
	WalletTotal   WalletField = "total"
	WalletTic     WalletField = "tic"
	WalletGic     WalletField = "gic"
	WalletStaking WalletField = "staking"
	WalletPartner WalletField = "partner"
)

var ErrUnknownWalletField = errors.New("unknown wallet field")

func ParseWalletField(raw string) (WalletField, error) {
	switch WalletField(raw) {
	case WalletTotal, WalletTic, WalletGic, WalletStaking, WalletPartner:
		return WalletField(raw), nil
	}
	return "", ErrUnknownWalletField
}

// Reason classifies a ledger entry by the business event that produced it.
type Reason string

const (
	ReasonDeposit      Reason = "deposit"
	ReasonWithdrawal   Reason = "withdrawal"
	ReasonDistribution Reason = "daily_distribution"
	ReasonCommission   Reason = "commission"
	ReasonRankBonus    Reason = "rank_bonus"
	ReasonTransfer     Reason = "transfer"
)

var ErrUnknownReason = errors.New("unknown ledger reason")

func ParseReason(raw string) (Reason, error) {
	switch Reason(raw) {
	case ReasonDeposit, ReasonWithdrawal, ReasonDistribution,
		ReasonCommission, ReasonRankBonus, ReasonTransfer:
		return Reason(raw), nil
	}
	return "", ErrUnknownReason
}
