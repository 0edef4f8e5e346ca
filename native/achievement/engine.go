package achievement

import (
	"encoding/binary"
	"fmt"

	"ecochain/core/events"
	"ecochain/crypto"
	nativecommon "ecochain/native/common"
	"ecochain/native/rewards"
)

// ModuleName is the pause-switch identifier for the achievement gate.
const ModuleName = "achievement"

var (
	tokenPrefix = []byte("achievement:")
	ownerPrefix = []byte("achievement-owner:")
	sequenceKey = []byte("achievement-seq")
)

func tokenKey(id uint64) []byte {
	buf := make([]byte, len(tokenPrefix)+8)
	copy(buf, tokenPrefix)
	binary.BigEndian.PutUint64(buf[len(tokenPrefix):], id)
	return buf
}

func ownerKey(addr crypto.Address) []byte {
	return append(append([]byte(nil), ownerPrefix...), addr.Bytes()...)
}

// Token is a non-transferable achievement record. Identity and ownership are
// immutable after mint; only the impact level may change.
type Token struct {
	ID    uint64
	Owner []byte
	Level uint64
}

// State is the slice of the state manager the achievement gate needs.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	HasRole(role string, addr []byte) bool
}

// Engine enforces the one-mint-per-address achievement gate. Minting is what
// flips the verification registry's nftMinted flag and unlocks reward
// eligibility.
type Engine struct {
	state   State
	rewards *rewards.Engine
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewEngine creates an achievement gate over the provided state and
// verification registry.
func NewEngine(st State, rw *rewards.Engine) *Engine {
	return &Engine{
		state:   st,
		rewards: rw,
		emitter: events.NoopEmitter{},
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

func (e *Engine) guard() error {
	return nativecommon.Guard(e.pauses, ModuleName)
}

func (e *Engine) requireRole(role string, caller crypto.Address) error {
	if !e.state.HasRole(role, caller.Bytes()) {
		return fmt.Errorf("%w: caller %s lacks %s", ErrUnauthorized, caller, role)
	}
	return nil
}

// VerifyPOI records a proof-of-impact attestation for user through the
// verification registry. Privileged: requires the verifier role.
func (e *Engine) VerifyPOI(caller, user crypto.Address) error {
	if err := e.guard(); err != nil {
		return err
	}
	if user.IsZero() {
		return ErrInvalidAddress
	}
	return e.rewards.SetPoiVerificationStatus(caller, user, true)
}

// Mint issues the caller's achievement token at level 1. At most one token
// may ever be minted per address, enforced by the registry's minted flag
// rather than an ownership scan.
func (e *Engine) Mint(user crypto.Address) (uint64, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	if user.IsZero() {
		return 0, ErrInvalidAddress
	}
	status, err := e.rewards.GetVerificationStatus(user)
	if err != nil {
		return 0, err
	}
	if status.NftMinted {
		return 0, ErrAlreadyMinted
	}
	if !status.PoiVerified {
		return 0, ErrNotVerifiedPOI
	}

	var seq uint64
	if _, err := e.state.KVGet(sequenceKey, &seq); err != nil {
		return 0, err
	}
	seq++
	if err := e.state.KVPut(sequenceKey, seq); err != nil {
		return 0, err
	}
	token := &Token{ID: seq, Owner: user.Bytes(), Level: 1}
	if err := e.state.KVPut(tokenKey(seq), token); err != nil {
		return 0, err
	}
	if err := e.state.KVPut(ownerKey(user), seq); err != nil {
		return 0, err
	}
	// Own state is written; flipping the registry flag is the explicit
	// cross-module effect that unlocks reward eligibility.
	if err := e.rewards.MarkNftMinted(user); err != nil {
		return 0, err
	}
	e.emitter.Emit(events.AchievementMinted{TokenID: seq, Owner: user})
	return seq, nil
}

// UpdateImpactLevel sets a minted token's impact level within [1,10].
// Privileged: requires the admin role.
func (e *Engine) UpdateImpactLevel(caller crypto.Address, tokenID, level uint64) error {
	if err := e.requireRole(nativecommon.RoleAdmin, caller); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	if level < rewards.MinImpactLevel || level > rewards.MaxImpactLevel {
		return fmt.Errorf("%w: %d", ErrInvalidLevelRange, level)
	}
	token := new(Token)
	found, err := e.state.KVGet(tokenKey(tokenID), token)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: id %d", ErrTokenNotFound, tokenID)
	}
	token.Level = level
	if err := e.state.KVPut(tokenKey(tokenID), token); err != nil {
		return err
	}
	e.emitter.Emit(events.ImpactLevelSet{TokenID: tokenID, Level: level})
	return nil
}

// GetToken returns the token record for tokenID.
func (e *Engine) GetToken(tokenID uint64) (*Token, error) {
	token := new(Token)
	found, err := e.state.KVGet(tokenKey(tokenID), token)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: id %d", ErrTokenNotFound, tokenID)
	}
	return token, nil
}

// TokenOf returns the token owned by addr, if one has been minted.
func (e *Engine) TokenOf(addr crypto.Address) (*Token, bool, error) {
	var id uint64
	found, err := e.state.KVGet(ownerKey(addr), &id)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	token, err := e.GetToken(id)
	if err != nil {
		return nil, false, err
	}
	return token, true, nil
}
