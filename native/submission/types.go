package submission

import (
	"lukechampine.com/blake3"
)

// Status is the submission lifecycle state. Pending transitions exactly once
// to Approved or Rejected; both are terminal.
type Status uint8

const (
	StatusPending Status = iota
	StatusApproved
	StatusRejected
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Submission is a single cleanup-action record. IDs are sequential and never
// reused. The verification hash is the off-chain scoring digest a verifier
// attaches after creation; it does not drive the approval decision.
type Submission struct {
	ID              uint64
	Submitter       []byte
	DataURI         string
	BeforeHash      [32]byte
	AfterHash       [32]byte
	ImpactFormHash  [32]byte
	Lat             string
	Lng             string
	Referrer        []byte
	Status          Status
	VerificationSet bool
	Verification    [32]byte
	CreatedAt       uint64
}

// Digest computes the blake3 audit digest over the submission's immutable
// fields. Stored off-chain by the indexer to detect tampering.
func (s *Submission) Digest() [32]byte {
	h := blake3.New(32, nil)
	h.Write(s.Submitter)
	h.Write([]byte(s.DataURI))
	h.Write(s.BeforeHash[:])
	h.Write(s.AfterHash[:])
	h.Write(s.ImpactFormHash[:])
	h.Write([]byte(s.Lat))
	h.Write([]byte(s.Lng))
	h.Write(s.Referrer)
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}
