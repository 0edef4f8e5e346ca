package submission

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"
	"time"

	"ecochain/core/events"
	"ecochain/crypto"
	nativecommon "ecochain/native/common"
	"ecochain/native/rewards"
)

// ModuleName is the pause-switch identifier for the submission engine.
const ModuleName = "submission"

var (
	recordPrefix     = []byte("submission:")
	submitterPrefix  = []byte("submission-by:")
	sequenceKey      = []byte("submission-seq")
	pendingKey       = []byte("submission-pending")
	defaultRewardKey = []byte("submission-default-reward")
)

func recordKey(id uint64) []byte {
	buf := make([]byte, len(recordPrefix)+8)
	copy(buf, recordPrefix)
	binary.BigEndian.PutUint64(buf[len(recordPrefix):], id)
	return buf
}

func submitterKey(addr crypto.Address) []byte {
	return append(append([]byte(nil), submitterPrefix...), addr.Bytes()...)
}

// State is the slice of the state manager the submission engine needs.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVAppend(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
	HasRole(role string, addr []byte) bool
}

// CreateParams carries the caller-supplied fields of a new submission.
type CreateParams struct {
	DataURI        string
	BeforeHash     [32]byte
	AfterHash      [32]byte
	ImpactFormHash [32]byte
	Lat            string
	Lng            string
	Referrer       crypto.Address
}

// Engine drives the submission approval lifecycle and forwards approval
// payouts to the reward engine.
type Engine struct {
	state   State
	rewards *rewards.Engine
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
}

// NewEngine creates a submission engine over the provided state and reward
// engine.
func NewEngine(st State, rw *rewards.Engine) *Engine {
	return &Engine{
		state:   st,
		rewards: rw,
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

func (e *Engine) nextID() (uint64, error) {
	var seq uint64
	if _, err := e.state.KVGet(sequenceKey, &seq); err != nil {
		return 0, err
	}
	seq++
	if err := e.state.KVPut(sequenceKey, seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func (e *Engine) pendingIDs() ([]uint64, error) {
	var ids []uint64
	if err := e.state.KVGetList(pendingKey, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (e *Engine) setPendingIDs(ids []uint64) error {
	return e.state.KVPut(pendingKey, ids)
}

func removeID(ids []uint64, id uint64) []uint64 {
	filtered := ids[:0]
	for _, existing := range ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	return filtered
}

// DefaultReward returns the amount credited on approval.
func (e *Engine) DefaultReward() (*big.Int, error) {
	reward := new(big.Int)
	found, err := e.state.KVGet(defaultRewardKey, reward)
	if err != nil {
		return nil, err
	}
	if !found || reward.Sign() <= 0 {
		wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
		return wei.Mul(wei, big.NewInt(10)), nil
	}
	return reward, nil
}

// UpdateDefaultReward changes the approval payout. Privileged: requires the
// admin role.
func (e *Engine) UpdateDefaultReward(caller crypto.Address, amount *big.Int) error {
	if err := e.requireRole(nativecommon.RoleAdmin, caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.state.KVPut(defaultRewardKey, amount); err != nil {
		return err
	}
	e.emitter.Emit(events.DefaultRewardUpdated{Amount: amount})
	return nil
}

// Create records a new pending submission for submitter and returns its id.
// A non-zero referrer distinct from the submitter is bound in the referral
// registry; an existing binding is left untouched.
func (e *Engine) Create(submitter crypto.Address, params CreateParams) (uint64, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	if submitter.IsZero() {
		return 0, ErrInvalidAddress
	}
	if strings.TrimSpace(params.DataURI) == "" {
		return 0, ErrInvalidData
	}
	id, err := e.nextID()
	if err != nil {
		return 0, err
	}
	record := &Submission{
		ID:             id,
		Submitter:      submitter.Bytes(),
		DataURI:        params.DataURI,
		BeforeHash:     params.BeforeHash,
		AfterHash:      params.AfterHash,
		ImpactFormHash: params.ImpactFormHash,
		Lat:            params.Lat,
		Lng:            params.Lng,
		Status:         StatusPending,
		CreatedAt:      uint64(e.nowFn()),
	}
	if !params.Referrer.IsZero() && params.Referrer != submitter {
		record.Referrer = params.Referrer.Bytes()
	}
	if err := e.state.KVPut(recordKey(id), record); err != nil {
		return 0, err
	}
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)
	if err := e.state.KVAppend(submitterKey(submitter), idBytes); err != nil {
		return 0, err
	}
	pending, err := e.pendingIDs()
	if err != nil {
		return 0, err
	}
	if err := e.setPendingIDs(append(pending, id)); err != nil {
		return 0, err
	}
	if len(record.Referrer) > 0 {
		if err := e.rewards.BindReferral(submitter, params.Referrer); err != nil {
			return 0, err
		}
	}
	e.emitter.Emit(events.SubmissionCreated{
		ID:        id,
		Submitter: submitter,
		DataURI:   record.DataURI,
		Digest:    record.Digest(),
	})
	return id, nil
}

func (e *Engine) loadForDecision(id uint64) (*Submission, error) {
	record := new(Submission)
	found, err := e.state.KVGet(recordKey(id), record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	switch record.Status {
	case StatusApproved:
		return nil, fmt.Errorf("%w: id %d", ErrAlreadyApproved, id)
	case StatusRejected:
		return nil, fmt.Errorf("%w: id %d", ErrAlreadyRejected, id)
	}
	return record, nil
}

// Approve marks a pending submission approved and credits the default reward
// to the submitter's claimable balance. Privileged: requires the admin role.
func (e *Engine) Approve(caller crypto.Address, id uint64) error {
	if err := e.requireRole(nativecommon.RoleAdmin, caller); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	record, err := e.loadForDecision(id)
	if err != nil {
		return err
	}
	reward, err := e.DefaultReward()
	if err != nil {
		return err
	}
	record.Status = StatusApproved
	if err := e.state.KVPut(recordKey(id), record); err != nil {
		return err
	}
	pending, err := e.pendingIDs()
	if err != nil {
		return err
	}
	if err := e.setPendingIDs(removeID(pending, id)); err != nil {
		return err
	}
	submitter := crypto.BytesToAddress(record.Submitter)
	if err := e.rewards.CreditSubmissionReward(submitter, reward); err != nil {
		return err
	}
	e.emitter.Emit(events.SubmissionApproved{ID: id, Submitter: submitter, Reward: reward})
	return nil
}

// Reject marks a pending submission rejected. No balances change.
// Privileged: requires the admin role.
func (e *Engine) Reject(caller crypto.Address, id uint64) error {
	if err := e.requireRole(nativecommon.RoleAdmin, caller); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	record, err := e.loadForDecision(id)
	if err != nil {
		return err
	}
	record.Status = StatusRejected
	if err := e.state.KVPut(recordKey(id), record); err != nil {
		return err
	}
	pending, err := e.pendingIDs()
	if err != nil {
		return err
	}
	if err := e.setPendingIDs(removeID(pending, id)); err != nil {
		return err
	}
	e.emitter.Emit(events.SubmissionRejected{
		ID:        id,
		Submitter: crypto.BytesToAddress(record.Submitter),
	})
	return nil
}

// StoreVerificationHash attaches the off-chain scoring digest to a
// submission. Independent of approval state. Privileged: requires the
// verifier role.
func (e *Engine) StoreVerificationHash(caller crypto.Address, id uint64, hash [32]byte) error {
	if err := e.requireRole(nativecommon.RoleVerifier, caller); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	record := new(Submission)
	found, err := e.state.KVGet(recordKey(id), record)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	record.Verification = hash
	record.VerificationSet = true
	if err := e.state.KVPut(recordKey(id), record); err != nil {
		return err
	}
	e.emitter.Emit(events.VerificationHashStored{ID: id, Hash: hash})
	return nil
}

// Get returns the submission record for id.
func (e *Engine) Get(id uint64) (*Submission, error) {
	record := new(Submission)
	found, err := e.state.KVGet(recordKey(id), record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return record, nil
}

// BySubmitter returns the ids of every submission created by addr, in
// creation order.
func (e *Engine) BySubmitter(addr crypto.Address) ([]uint64, error) {
	var raw [][]byte
	if err := e.state.KVGetList(submitterKey(addr), &raw); err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(raw))
	for _, entry := range raw {
		if len(entry) == 8 {
			ids = append(ids, binary.BigEndian.Uint64(entry))
		}
	}
	return ids, nil
}

// Pending returns the ids of all submissions awaiting a decision.
func (e *Engine) Pending() ([]uint64, error) {
	return e.pendingIDs()
}
