package rewards

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"ecochain/core/events"
	"ecochain/crypto"
	nativecommon "ecochain/native/common"
	"ecochain/native/token"
)

// ModuleName is the pause-switch identifier for the reward engine.
const ModuleName = "rewards"

var (
	verifyPrefix   = []byte("verify:")
	referralPrefix = []byte("referral:")
	paramsKey      = []byte("rewards-params")
)

func verifyKey(addr crypto.Address) []byte {
	return append(append([]byte(nil), verifyPrefix...), addr.Bytes()...)
}

func referralKey(invitee crypto.Address) []byte {
	return append(append([]byte(nil), referralPrefix...), invitee.Bytes()...)
}

// State is the slice of the state manager the reward engine needs.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	HasRole(role string, addr []byte) bool
}

// Engine owns the verification registry and pays level, streak and referral
// rewards through the token ledger. All cross-module effects are explicit
// ledger calls made after the engine's own state has been written.
type Engine struct {
	state   State
	ledger  *token.Ledger
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
}

// NewEngine creates a reward engine over the provided state and ledger.
func NewEngine(st State, ledger *token.Ledger) *Engine {
	return &Engine{
		state:   st,
		ledger:  ledger,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses configures the module pause view.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	e.pauses = p
}

// SetNowFunc overrides the time source. Intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) guard() error {
	return nativecommon.Guard(e.pauses, ModuleName)
}

func (e *Engine) requireRole(role string, caller crypto.Address) error {
	if !e.state.HasRole(role, caller.Bytes()) {
		return fmt.Errorf("%w: caller %s lacks %s", ErrUnauthorized, caller, role)
	}
	return nil
}

func (e *Engine) loadStatus(user crypto.Address) (*VerificationStatus, error) {
	status := new(VerificationStatus)
	if _, err := e.state.KVGet(verifyKey(user), status); err != nil {
		return nil, err
	}
	return status, nil
}

func (e *Engine) storeStatus(user crypto.Address, status *VerificationStatus) error {
	return e.state.KVPut(verifyKey(user), status)
}

// Params returns the configured reward schedule.
func (e *Engine) Params() (Params, error) {
	params := new(Params)
	if _, err := e.state.KVGet(paramsKey, params); err != nil {
		return Params{}, err
	}
	return params.Normalize(), nil
}

// SetParams persists the reward schedule. Privileged: requires the admin
// role.
func (e *Engine) SetParams(caller crypto.Address, params Params) error {
	if err := e.requireRole(nativecommon.RoleAdmin, caller); err != nil {
		return err
	}
	normalized := params.Normalize()
	return e.state.KVPut(paramsKey, &normalized)
}

// InitParams seeds the reward schedule without an authorization check. Used
// once during genesis.
func (e *Engine) InitParams(params Params) error {
	normalized := params.Normalize()
	return e.state.KVPut(paramsKey, &normalized)
}

// SetPoiVerificationStatus records a verifier's proof-of-impact attestation
// for user. A repeat verification within the streak window extends the streak
// and pays the streak bonus; a late one resets the streak and pays nothing.
// The first verification ever never pays. Privileged: requires the verifier
// role.
func (e *Engine) SetPoiVerificationStatus(caller, user crypto.Address, verified bool) error {
	if err := e.requireRole(nativecommon.RoleVerifier, caller); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	if user.IsZero() {
		return ErrInvalidAddress
	}
	status, err := e.loadStatus(user)
	if err != nil {
		return err
	}
	now := uint64(e.nowFn())

	payStreakBonus := false
	if verified && status.LastVerified != 0 {
		if now-status.LastVerified <= StreakWindowSeconds {
			status.StreakCount++
			payStreakBonus = true
		} else if status.StreakCount != 0 {
			status.StreakCount = 0
			e.emitter.Emit(events.StreakReset{Account: user})
		}
	}
	status.PoiVerified = verified
	status.LastVerified = now
	if err := e.storeStatus(user, status); err != nil {
		return err
	}
	e.emitter.Emit(events.PoiVerified{
		Account:    user,
		Verified:   verified,
		VerifiedAt: now,
		Streak:     status.StreakCount,
	})

	if payStreakBonus {
		params, err := e.Params()
		if err != nil {
			return err
		}
		if err := e.ledger.MintReward(user, params.StreakBonus); err != nil {
			return err
		}
		e.emitter.Emit(events.StreakBonusPaid{
			Account: user,
			Streak:  status.StreakCount,
			Amount:  params.StreakBonus,
		})
	}
	return nil
}

// RegisterReferral binds invitee to referrer. The binding is immutable and
// self-referrals are rejected. Privileged: requires the reward manager role.
func (e *Engine) RegisterReferral(caller, invitee, referrer crypto.Address) error {
	if err := e.requireRole(nativecommon.RoleRewardManager, caller); err != nil {
		return err
	}
	return e.registerReferral(invitee, referrer)
}

// BindReferral is the internal registration path used by the submission
// engine when a submission carries a referrer. An existing binding is left
// untouched.
func (e *Engine) BindReferral(invitee, referrer crypto.Address) error {
	err := e.registerReferral(invitee, referrer)
	if err == ErrAlreadyRegistered {
		return nil
	}
	return err
}

func (e *Engine) registerReferral(invitee, referrer crypto.Address) error {
	if err := e.guard(); err != nil {
		return err
	}
	if invitee.IsZero() || referrer.IsZero() {
		return ErrInvalidAddress
	}
	if invitee == referrer {
		return ErrSelfReferral
	}
	existing := new(Referral)
	found, err := e.state.KVGet(referralKey(invitee), existing)
	if err != nil {
		return err
	}
	if found {
		return ErrAlreadyRegistered
	}
	referral := &Referral{Referrer: referrer.Bytes()}
	if err := e.state.KVPut(referralKey(invitee), referral); err != nil {
		return err
	}
	e.emitter.Emit(events.ReferralRegistered{Invitee: invitee, Referrer: referrer})
	return nil
}

// RewardImpactProductClaim pays the one-time reward for user reaching an
// impact level. The first qualifying claim also settles the invitee's
// referral bonus if one is pending. Privileged: requires the reward manager
// role.
func (e *Engine) RewardImpactProductClaim(caller, user crypto.Address, level uint64) error {
	if err := e.requireRole(nativecommon.RoleRewardManager, caller); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	if user.IsZero() {
		return ErrInvalidAddress
	}
	if level < MinImpactLevel || level > MaxImpactLevel {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	status, err := e.loadStatus(user)
	if err != nil {
		return err
	}
	if !status.RewardEligible() {
		return ErrNotEligible
	}
	if status.HasClaimedLevel(level) {
		return fmt.Errorf("%w: level %d", ErrLevelAlreadyClaimed, level)
	}

	// Record the claim before any payout so a re-entering observer can
	// never see the level unclaimed.
	status.ClaimedLevels = append(status.ClaimedLevels, level)
	sort.Slice(status.ClaimedLevels, func(i, j int) bool {
		return status.ClaimedLevels[i] < status.ClaimedLevels[j]
	})
	if err := e.storeStatus(user, status); err != nil {
		return err
	}

	params, err := e.Params()
	if err != nil {
		return err
	}
	if err := e.ledger.MintReward(user, params.LevelReward); err != nil {
		return err
	}
	e.emitter.Emit(events.LevelClaimRewarded{Account: user, Level: level, Amount: params.LevelReward})

	referral := new(Referral)
	found, err := e.state.KVGet(referralKey(user), referral)
	if err != nil {
		return err
	}
	if found && !referral.Rewarded {
		referral.Rewarded = true
		if err := e.state.KVPut(referralKey(user), referral); err != nil {
			return err
		}
		referrer := crypto.BytesToAddress(referral.Referrer)
		if err := e.ledger.MintReward(referrer, params.ReferralBonus); err != nil {
			return err
		}
		e.emitter.Emit(events.ReferralBonusPaid{
			Invitee:  user,
			Referrer: referrer,
			Amount:   params.ReferralBonus,
		})
	}
	return nil
}

// ClaimRewards moves a claimable reward balance into user's spendable
// balance.
func (e *Engine) ClaimRewards(user crypto.Address, amount *big.Int) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.ledger.ReleaseClaimable(user, amount); err != nil {
		return err
	}
	e.emitter.Emit(events.RewardsClaimed{Account: user, Amount: amount})
	return nil
}

// CreditSubmissionReward credits a submission approval payout to the
// submitter's claimable balance. Called by the submission engine after it has
// authorized the approving admin.
func (e *Engine) CreditSubmissionReward(user crypto.Address, amount *big.Int) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.ledger.CreditClaimable(user, amount, "submission")
}

// MarkNftMinted flips the registry's minted flag for user. Called by the
// achievement gate after a successful mint.
func (e *Engine) MarkNftMinted(user crypto.Address) error {
	if user.IsZero() {
		return ErrInvalidAddress
	}
	status, err := e.loadStatus(user)
	if err != nil {
		return err
	}
	if status.NftMinted {
		return nil
	}
	status.NftMinted = true
	return e.storeStatus(user, status)
}

// GetVerificationStatus returns the registry entry for user. Missing entries
// come back zero-valued.
func (e *Engine) GetVerificationStatus(user crypto.Address) (*VerificationStatus, error) {
	return e.loadStatus(user)
}

// GetReferral returns the referral binding for invitee, if any.
func (e *Engine) GetReferral(invitee crypto.Address) (*Referral, bool, error) {
	referral := new(Referral)
	found, err := e.state.KVGet(referralKey(invitee), referral)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return referral, true, nil
}
