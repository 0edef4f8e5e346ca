package rewards

import "math/big"

// MinImpactLevel and MaxImpactLevel bound the claimable achievement levels.
const (
	MinImpactLevel uint64 = 1
	MaxImpactLevel uint64 = 10
)

// StreakWindowSeconds is the cutoff for a verification to extend a streak.
// The boundary is inclusive: exactly seven days still pays the bonus.
const StreakWindowSeconds uint64 = 7 * 24 * 60 * 60

// VerificationStatus is the per-address verification registry entry. Created
// lazily on first verification, never deleted. ClaimedLevels only grows.
type VerificationStatus struct {
	PoiVerified   bool
	NftMinted     bool
	LastVerified  uint64
	StreakCount   uint64
	ClaimedLevels []uint64
}

// RewardEligible reports whether level-claim rewards may be paid: the address
// must hold a verified proof of impact and a minted achievement token.
func (s *VerificationStatus) RewardEligible() bool {
	return s != nil && s.PoiVerified && s.NftMinted
}

// HasClaimedLevel reports whether the level reward has already been paid.
func (s *VerificationStatus) HasClaimedLevel(level uint64) bool {
	if s == nil {
		return false
	}
	for _, claimed := range s.ClaimedLevels {
		if claimed == level {
			return true
		}
	}
	return false
}

// Referral binds an invitee to the referrer that introduced them. The binding
// is immutable; Rewarded flips true at the invitee's first qualifying level
// claim and never resets.
type Referral struct {
	Referrer []byte
	Rewarded bool
}

// Params are the fixed reward amounts in wei units. Loaded from genesis;
// zero fields fall back to the defaults below.
type Params struct {
	LevelReward   *big.Int
	StreakBonus   *big.Int
	ReferralBonus *big.Int
}

func tokens(n int64) *big.Int {
	wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return wei.Mul(wei, big.NewInt(n))
}

// DefaultParams returns the production reward schedule: 10 ECO per level
// claim, 3 ECO per streak extension, 3 ECO per referral.
func DefaultParams() Params {
	return Params{
		LevelReward:   tokens(10),
		StreakBonus:   tokens(3),
		ReferralBonus: tokens(3),
	}
}

// Normalize fills zero-value fields from the defaults.
func (p Params) Normalize() Params {
	defaults := DefaultParams()
	if p.LevelReward == nil || p.LevelReward.Sign() <= 0 {
		p.LevelReward = defaults.LevelReward
	}
	if p.StreakBonus == nil || p.StreakBonus.Sign() <= 0 {
		p.StreakBonus = defaults.StreakBonus
	}
	if p.ReferralBonus == nil || p.ReferralBonus.Sign() <= 0 {
		p.ReferralBonus = defaults.ReferralBonus
	}
	return p
}
