package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"ticledger/internal/db"
	"ticledger/internal/token"
)

// TransferService moves funds between a user's own sub-wallets or across
// accounts. Both postings of a transfer share one business reference and
// one transaction, so either both halves commit or neither does.
type TransferService struct {
	txRunner db.TxRunner
	ledger   *LedgerService
	audit    AuditStore
}

func NewTransferService(txRunner db.TxRunner, ledger *LedgerService, audit AuditStore) *TransferService {
	return &TransferService{
		txRunner: txRunner,
		ledger:   ledger,
		audit:    audit,
	}
}

// TransferBetweenWallets moves amount from one of the user's sub-wallets to
// another. The two entries share the reference `xfer:{id}`; their wallet
// fields differ, so the idempotency key stays unique per posting.
func (s *TransferService) TransferBetweenWallets(ctx context.Context, actorID, email string, fromField, toField token.WalletField, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	if fromField == toField {
		return "", ErrSameWallet
	}
	transferID := uuid.NewString()
	reference := fmt.Sprintf("xfer:%s", transferID)
	entries := []EntryRequest{
		{
			EntryID:           uuid.NewString(),
			AccountEmail:      email,
			WalletField:       fromField,
			Amount:            amount.Neg(),
			Reason:            token.ReasonTransfer,
			SourceReferenceID: reference,
		},
		{
			EntryID:           uuid.NewString(),
			AccountEmail:      email,
			WalletField:       toField,
			Amount:            amount,
			Reason:            token.ReasonTransfer,
			SourceReferenceID: reference,
		},
	}
	if err := s.run(ctx, actorID, transferID, entries, map[string]string{
		"account": email,
		"from":    string(fromField),
		"to":      string(toField),
		"amount":  token.FormatAmount(amount),
	}); err != nil {
		return "", err
	}
	return transferID, nil
}

// TransferToUser moves amount from one account's total wallet to another's.
// Both postings hit the same wallet field, so the shared reference carries
// an :out / :in suffix to keep the idempotency key unique.
func (s *TransferService) TransferToUser(ctx context.Context, actorID, fromEmail, toEmail string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	if fromEmail == toEmail {
		return "", ErrSameAccountTransfer
	}
	transferID := uuid.NewString()
	entries := []EntryRequest{
		{
			EntryID:           uuid.NewString(),
			AccountEmail:      fromEmail,
			WalletField:       token.WalletTotal,
			Amount:            amount.Neg(),
			Reason:            token.ReasonTransfer,
			SourceReferenceID: fmt.Sprintf("xfer:%s:out", transferID),
		},
		{
			EntryID:           uuid.NewString(),
			AccountEmail:      toEmail,
			WalletField:       token.WalletTotal,
			Amount:            amount,
			Reason:            token.ReasonTransfer,
			SourceReferenceID: fmt.Sprintf("xfer:%s:in", transferID),
		},
	}
	if err := s.run(ctx, actorID, transferID, entries, map[string]string{
		"from":   fromEmail,
		"to":     toEmail,
		"amount": token.FormatAmount(amount),
	}); err != nil {
		return "", err
	}
	return transferID, nil
}

func (s *TransferService) run(ctx context.Context, actorID, transferID string, entries []EntryRequest, auditData map[string]string) error {
	for _, entry := range entries {
		if err := validateEntry(entry); err != nil {
			return err
		}
	}
	var results []ApplyResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		results, err = s.ledger.applyTx(ctx, tx, entries)
		if err != nil {
			return err
		}
		data, _ := json.Marshal(auditData)
		return s.audit.Log(ctx, tx, actorID, "transfer", "transfer", transferID, string(data))
	})
	if err != nil {
		return err
	}
	s.ledger.broadcast(results)
	return nil
}
