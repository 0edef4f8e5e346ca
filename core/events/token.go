package events

import (
	"math/big"

	"ecochain/core/types"
	"ecochain/crypto"
)

const (
	TypeTokenMinted        = "token.minted"
	TypeTokenBurned        = "token.burned"
	TypeTokenTransferred   = "token.transferred"
	TypeTokenDeposited     = "token.deposited"
	TypeTokenWithdrawn     = "token.withdrawn"
	TypeTokenStaked        = "token.staked"
	TypeTokenUnstaked      = "token.unstaked"
	TypeTokenLocked        = "token.locked"
	TypeTokenUnlocked      = "token.unlocked"
	TypeTokenClaimed       = "token.claimed"
	TypeClaimableCredited  = "token.claimable_credited"
	TypeTGECompleted       = "token.tge_completed"
	TypeWhitelistUpdated   = "token.whitelist_updated"
	TypeSupplyCapUpdated   = "token.supply_cap_updated"
)

type TokenMinted struct {
	To     crypto.Address
	Amount *big.Int
}

func (TokenMinted) EventType() string { return TypeTokenMinted }

func (e TokenMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenMinted,
		Attributes: map[string]string{
			"to":     formatAddr(e.To),
			"amount": formatAmount(e.Amount),
		},
	}
}

type TokenBurned struct {
	From   crypto.Address
	Amount *big.Int
}

func (TokenBurned) EventType() string { return TypeTokenBurned }

func (e TokenBurned) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenBurned,
		Attributes: map[string]string{
			"from":   formatAddr(e.From),
			"amount": formatAmount(e.Amount),
		},
	}
}

type TokenTransferred struct {
	From   crypto.Address
	To     crypto.Address
	Amount *big.Int
}

func (TokenTransferred) EventType() string { return TypeTokenTransferred }

func (e TokenTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransferred,
		Attributes: map[string]string{
			"from":   formatAddr(e.From),
			"to":     formatAddr(e.To),
			"amount": formatAmount(e.Amount),
		},
	}
}

type TokenDeposited struct {
	Account crypto.Address
	Amount  *big.Int
}

func (TokenDeposited) EventType() string { return TypeTokenDeposited }

func (e TokenDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenDeposited,
		Attributes: map[string]string{
			"account": formatAddr(e.Account),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type TokenWithdrawn struct {
	Account crypto.Address
	Amount  *big.Int
}

func (TokenWithdrawn) EventType() string { return TypeTokenWithdrawn }

func (e TokenWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenWithdrawn,
		Attributes: map[string]string{
			"account": formatAddr(e.Account),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type TokenStaked struct {
	Account crypto.Address
	Amount  *big.Int
}

func (TokenStaked) EventType() string { return TypeTokenStaked }

func (e TokenStaked) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenStaked,
		Attributes: map[string]string{
			"account": formatAddr(e.Account),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type TokenUnstaked struct {
	Account crypto.Address
	Amount  *big.Int
}

func (TokenUnstaked) EventType() string { return TypeTokenUnstaked }

func (e TokenUnstaked) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenUnstaked,
		Attributes: map[string]string{
			"account": formatAddr(e.Account),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type TokenLocked struct {
	Account    crypto.Address
	Amount     *big.Int
	UnlockTime uint64
}

func (TokenLocked) EventType() string { return TypeTokenLocked }

func (e TokenLocked) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenLocked,
		Attributes: map[string]string{
			"account":    formatAddr(e.Account),
			"amount":     formatAmount(e.Amount),
			"unlockTime": formatUint(e.UnlockTime),
		},
	}
}

type TokenUnlocked struct {
	Account crypto.Address
	Amount  *big.Int
}

func (TokenUnlocked) EventType() string { return TypeTokenUnlocked }

func (e TokenUnlocked) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenUnlocked,
		Attributes: map[string]string{
			"account": formatAddr(e.Account),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type TokenClaimed struct {
	Account crypto.Address
	Amount  *big.Int
}

func (TokenClaimed) EventType() string { return TypeTokenClaimed }

func (e TokenClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenClaimed,
		Attributes: map[string]string{
			"account": formatAddr(e.Account),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type ClaimableCredited struct {
	Account crypto.Address
	Amount  *big.Int
	Reason  string
}

func (ClaimableCredited) EventType() string { return TypeClaimableCredited }

func (e ClaimableCredited) Event() *types.Event {
	return &types.Event{
		Type: TypeClaimableCredited,
		Attributes: map[string]string{
			"account": formatAddr(e.Account),
			"amount":  formatAmount(e.Amount),
			"reason":  e.Reason,
		},
	}
}

type TGECompleted struct{}

func (TGECompleted) EventType() string { return TypeTGECompleted }

func (e TGECompleted) Event() *types.Event {
	return &types.Event{Type: TypeTGECompleted, Attributes: map[string]string{}}
}

type WhitelistUpdated struct {
	Account     crypto.Address
	Whitelisted bool
}

func (WhitelistUpdated) EventType() string { return TypeWhitelistUpdated }

func (e WhitelistUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeWhitelistUpdated,
		Attributes: map[string]string{
			"account":     formatAddr(e.Account),
			"whitelisted": formatBool(e.Whitelisted),
		},
	}
}

type SupplyCapUpdated struct {
	Cap    *big.Int
	Active bool
}

func (SupplyCapUpdated) EventType() string { return TypeSupplyCapUpdated }

func (e SupplyCapUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeSupplyCapUpdated,
		Attributes: map[string]string{
			"cap":    formatAmount(e.Cap),
			"active": formatBool(e.Active),
		},
	}
}
