package indexer

import (
	"time"

	"github.com/google/uuid"
)

// EventRecord is one ledger event persisted for audit queries.
type EventRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type       string    `gorm:"size:64;index"`
	Account    string    `gorm:"size:64;index"`
	Attributes string    `gorm:"type:text"`
	CreatedAt  time.Time
}

// SubmissionRecord is a queryable projection of the submission lifecycle,
// updated as created/approved/rejected events stream in.
type SubmissionRecord struct {
	SubmissionID uint64 `gorm:"primaryKey"`
	Submitter    string `gorm:"size:64;index"`
	DataURI      string `gorm:"size:512"`
	Digest       string `gorm:"size:64"`
	Status       string `gorm:"size:16;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RewardRecord tracks every payout credit for reconciliation.
type RewardRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Account   string    `gorm:"size:64;index"`
	Kind      string    `gorm:"size:32;index"`
	Amount    string    `gorm:"size:80"`
	CreatedAt time.Time
}
