package types

import "math/big"

// LockedEntry is a tranche of tokens locked until a wall-clock unlock time
// (unix seconds).
type LockedEntry struct {
	Amount     *big.Int
	UnlockTime uint64
}

// Account is the per-address balance record managed by the token ledger.
// Balance is the spendable amount; Staked, Locked and Claimable are the
// sub-ledgers the conservation invariant sums over.
type Account struct {
	Nonce       uint64
	Balance     *big.Int
	Staked      *big.Int
	Claimable   *big.Int
	Locked      []LockedEntry
	Whitelisted bool
}

// NewAccount returns an account with all balances initialised to zero.
func NewAccount() *Account {
	return &Account{
		Balance:   big.NewInt(0),
		Staked:    big.NewInt(0),
		Claimable: big.NewInt(0),
	}
}

// Normalize replaces nil balance fields with zero so callers never have to
// nil-check before arithmetic.
func (a *Account) Normalize() *Account {
	if a == nil {
		return nil
	}
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
	if a.Staked == nil {
		a.Staked = big.NewInt(0)
	}
	if a.Claimable == nil {
		a.Claimable = big.NewInt(0)
	}
	for i := range a.Locked {
		if a.Locked[i].Amount == nil {
			a.Locked[i].Amount = big.NewInt(0)
		}
	}
	return a
}

// LockedTotal sums all locked tranches.
func (a *Account) LockedTotal() *big.Int {
	total := big.NewInt(0)
	if a == nil {
		return total
	}
	for _, entry := range a.Locked {
		if entry.Amount != nil {
			total.Add(total, entry.Amount)
		}
	}
	return total
}

// Total returns available + staked + locked + claimable, the quantity the
// ledger's totalDeposits counter conserves.
func (a *Account) Total() *big.Int {
	total := big.NewInt(0)
	if a == nil {
		return total
	}
	a.Normalize()
	total.Add(total, a.Balance)
	total.Add(total, a.Staked)
	total.Add(total, a.Claimable)
	total.Add(total, a.LockedTotal())
	return total
}
