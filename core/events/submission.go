package events

import (
	"encoding/hex"
	"math/big"

	"ecochain/core/types"
	"ecochain/crypto"
)

const (
	TypeSubmissionCreated      = "submission.created"
	TypeSubmissionApproved     = "submission.approved"
	TypeSubmissionRejected     = "submission.rejected"
	TypeVerificationHashStored = "submission.verification_hash_stored"
	TypeDefaultRewardUpdated   = "submission.default_reward_updated"
)

type SubmissionCreated struct {
	ID        uint64
	Submitter crypto.Address
	DataURI   string
	Digest    [32]byte
}

func (SubmissionCreated) EventType() string { return TypeSubmissionCreated }

func (e SubmissionCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeSubmissionCreated,
		Attributes: map[string]string{
			"id":        formatUint(e.ID),
			"submitter": formatAddr(e.Submitter),
			"dataUri":   e.DataURI,
			"digest":    hex.EncodeToString(e.Digest[:]),
		},
	}
}

type SubmissionApproved struct {
	ID        uint64
	Submitter crypto.Address
	Reward    *big.Int
}

func (SubmissionApproved) EventType() string { return TypeSubmissionApproved }

func (e SubmissionApproved) Event() *types.Event {
	return &types.Event{
		Type: TypeSubmissionApproved,
		Attributes: map[string]string{
			"id":        formatUint(e.ID),
			"submitter": formatAddr(e.Submitter),
			"reward":    formatAmount(e.Reward),
		},
	}
}

type SubmissionRejected struct {
	ID        uint64
	Submitter crypto.Address
}

func (SubmissionRejected) EventType() string { return TypeSubmissionRejected }

func (e SubmissionRejected) Event() *types.Event {
	return &types.Event{
		Type: TypeSubmissionRejected,
		Attributes: map[string]string{
			"id":        formatUint(e.ID),
			"submitter": formatAddr(e.Submitter),
		},
	}
}

type VerificationHashStored struct {
	ID   uint64
	Hash [32]byte
}

func (VerificationHashStored) EventType() string { return TypeVerificationHashStored }

func (e VerificationHashStored) Event() *types.Event {
	return &types.Event{
		Type: TypeVerificationHashStored,
		Attributes: map[string]string{
			"id":   formatUint(e.ID),
			"hash": hex.EncodeToString(e.Hash[:]),
		},
	}
}

type DefaultRewardUpdated struct {
	Amount *big.Int
}

func (DefaultRewardUpdated) EventType() string { return TypeDefaultRewardUpdated }

func (e DefaultRewardUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeDefaultRewardUpdated,
		Attributes: map[string]string{
			"amount": formatAmount(e.Amount),
		},
	}
}
