package types

import "math/big"

// LedgerTotals is the singleton conservation record for the token ledger.
// Minted only ever grows; Supply is minted minus burned; Deposits mirrors the
// sum of every account's balances (available + staked + locked + claimable);
// Claimable mirrors the sum of claimable sub-balances alone. Cap is only
// meaningful while CapSet is true. TGE flips false to true exactly once.
type LedgerTotals struct {
	Minted    *big.Int
	Supply    *big.Int
	Deposits  *big.Int
	Claimable *big.Int
	Cap       *big.Int
	CapSet    bool
	TGE       bool
}

// NewLedgerTotals returns totals with every counter at zero.
func NewLedgerTotals() *LedgerTotals {
	return &LedgerTotals{
		Minted:    big.NewInt(0),
		Supply:    big.NewInt(0),
		Deposits:  big.NewInt(0),
		Claimable: big.NewInt(0),
		Cap:       big.NewInt(0),
	}
}

// Normalize replaces nil counters with zero.
func (t *LedgerTotals) Normalize() *LedgerTotals {
	if t == nil {
		return nil
	}
	if t.Minted == nil {
		t.Minted = big.NewInt(0)
	}
	if t.Supply == nil {
		t.Supply = big.NewInt(0)
	}
	if t.Deposits == nil {
		t.Deposits = big.NewInt(0)
	}
	if t.Claimable == nil {
		t.Claimable = big.NewInt(0)
	}
	if t.Cap == nil {
		t.Cap = big.NewInt(0)
	}
	return t
}
