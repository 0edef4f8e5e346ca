package events

import (
	"math/big"

	"ecochain/core/types"
	"ecochain/crypto"
)

const (
	TypePoiVerified        = "rewards.poi_verified"
	TypeStreakBonusPaid    = "rewards.streak_bonus_paid"
	TypeStreakReset        = "rewards.streak_reset"
	TypeReferralRegistered = "rewards.referral_registered"
	TypeReferralBonusPaid  = "rewards.referral_bonus_paid"
	TypeLevelClaimRewarded = "rewards.level_claim_rewarded"
	TypeRewardsClaimed     = "rewards.claimed"
)

type PoiVerified struct {
	Account    crypto.Address
	Verified   bool
	VerifiedAt uint64
	Streak     uint64
}

func (PoiVerified) EventType() string { return TypePoiVerified }

func (e PoiVerified) Event() *types.Event {
	return &types.Event{
		Type: TypePoiVerified,
		Attributes: map[string]string{
			"account":    formatAddr(e.Account),
			"verified":   formatBool(e.Verified),
			"verifiedAt": formatUint(e.VerifiedAt),
			"streak":     formatUint(e.Streak),
		},
	}
}

type StreakBonusPaid struct {
	Account crypto.Address
	Streak  uint64
	Amount  *big.Int
}

func (StreakBonusPaid) EventType() string { return TypeStreakBonusPaid }

func (e StreakBonusPaid) Event() *types.Event {
	return &types.Event{
		Type: TypeStreakBonusPaid,
		Attributes: map[string]string{
			"account": formatAddr(e.Account),
			"streak":  formatUint(e.Streak),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type StreakReset struct {
	Account crypto.Address
}

func (StreakReset) EventType() string { return TypeStreakReset }

func (e StreakReset) Event() *types.Event {
	return &types.Event{
		Type: TypeStreakReset,
		Attributes: map[string]string{
			"account": formatAddr(e.Account),
		},
	}
}

type ReferralRegistered struct {
	Invitee  crypto.Address
	Referrer crypto.Address
}

func (ReferralRegistered) EventType() string { return TypeReferralRegistered }

func (e ReferralRegistered) Event() *types.Event {
	return &types.Event{
		Type: TypeReferralRegistered,
		Attributes: map[string]string{
			"invitee":  formatAddr(e.Invitee),
			"referrer": formatAddr(e.Referrer),
		},
	}
}

type ReferralBonusPaid struct {
	Invitee  crypto.Address
	Referrer crypto.Address
	Amount   *big.Int
}

func (ReferralBonusPaid) EventType() string { return TypeReferralBonusPaid }

func (e ReferralBonusPaid) Event() *types.Event {
	return &types.Event{
		Type: TypeReferralBonusPaid,
		Attributes: map[string]string{
			"invitee":  formatAddr(e.Invitee),
			"referrer": formatAddr(e.Referrer),
			"amount":   formatAmount(e.Amount),
		},
	}
}

type LevelClaimRewarded struct {
	Account crypto.Address
	Level   uint64
	Amount  *big.Int
}

func (LevelClaimRewarded) EventType() string { return TypeLevelClaimRewarded }

func (e LevelClaimRewarded) Event() *types.Event {
	return &types.Event{
		Type: TypeLevelClaimRewarded,
		Attributes: map[string]string{
			"account": formatAddr(e.Account),
			"level":   formatUint(e.Level),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type RewardsClaimed struct {
	Account crypto.Address
	Amount  *big.Int
}

func (RewardsClaimed) EventType() string { return TypeRewardsClaimed }

func (e RewardsClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardsClaimed,
		Attributes: map[string]string{
			"account": formatAddr(e.Account),
			"amount":  formatAmount(e.Amount),
		},
	}
}
