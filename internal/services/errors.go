package services

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrSameWallet          = errors.New("cannot transfer to same wallet")
	ErrSameAccountTransfer = errors.New("cannot transfer to same account")
	ErrMissingReference    = errors.New("missing source reference id")
)
