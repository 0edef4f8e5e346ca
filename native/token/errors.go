package token

import "errors"

var (
	ErrInvalidAmount       = errors.New("token: invalid amount")
	ErrInvalidAddress      = errors.New("token: invalid address")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	ErrTransfersLocked     = errors.New("token: transfers locked before tge")
	ErrSupplyCapExceeded   = errors.New("token: supply cap exceeded")
	ErrCapBelowSupply      = errors.New("token: cap below current supply")
	ErrTokensStillLocked   = errors.New("token: tokens still locked")
	ErrNothingLocked       = errors.New("token: no locked balance")
	ErrTGECompleted        = errors.New("token: tge already completed")
	ErrUnauthorized        = errors.New("token: unauthorized")
)
