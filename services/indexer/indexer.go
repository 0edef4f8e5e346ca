package indexer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ecochain/core/events"
	"ecochain/observability/metrics"
)

// Indexer persists committed ledger events into a relational audit store.
// It satisfies events.Emitter: Emit enqueues without blocking the node lock,
// a background worker writes batches to the database.
type Indexer struct {
	db     *gorm.DB
	logger *slog.Logger
	queue  chan events.Event
	done   chan struct{}
}

// Open creates (or migrates) the sqlite audit store at path and starts the
// write loop.
func Open(path string, logger *slog.Logger) (*Indexer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return newWithDB(db, logger)
}

// OpenInMemory backs the indexer with an in-memory database. Intended for
// tests and throwaway environments.
func OpenInMemory(logger *slog.Logger) (*Indexer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return newWithDB(db, logger)
}

func newWithDB(db *gorm.DB, logger *slog.Logger) (*Indexer, error) {
	if err := db.AutoMigrate(&EventRecord{}, &SubmissionRecord{}, &RewardRecord{}); err != nil {
		return nil, err
	}
	idx := &Indexer{
		db:     db,
		logger: logger,
		queue:  make(chan events.Event, 1024),
		done:   make(chan struct{}),
	}
	go idx.run()
	return idx, nil
}

// Emit implements events.Emitter. A full queue drops the event rather than
// stalling state commits; the drop is logged.
func (i *Indexer) Emit(e events.Event) {
	if e == nil {
		return
	}
	select {
	case i.queue <- e:
	default:
		i.logger.Warn("indexer queue full, dropping event", "type", e.EventType())
	}
}

// Close drains the queue and shuts the write loop down.
func (i *Indexer) Close() error {
	close(i.queue)
	<-i.done
	sqlDB, err := i.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (i *Indexer) run() {
	defer close(i.done)
	for e := range i.queue {
		if err := i.persist(e); err != nil {
			i.logger.Error("persist event", "type", e.EventType(), "error", err)
		}
	}
}

func (i *Indexer) persist(e events.Event) error {
	evt := e.Event()
	if evt == nil {
		return nil
	}
	metrics.Node().ObserveEvent(evt.Type)
	attrs, err := json.Marshal(evt.Attributes)
	if err != nil {
		return err
	}
	record := EventRecord{
		ID:         uuid.New(),
		Type:       evt.Type,
		Account:    accountOf(evt.Attributes),
		Attributes: string(attrs),
		CreatedAt:  time.Now().UTC(),
	}
	return i.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return i.project(tx, evt.Type, evt.Attributes)
	})
}

// project maintains the submission and reward side tables from the raw
// event stream.
func (i *Indexer) project(tx *gorm.DB, eventType string, attrs map[string]string) error {
	switch eventType {
	case events.TypeSubmissionCreated:
		id, err := strconv.ParseUint(attrs["id"], 10, 64)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Create(&SubmissionRecord{
			SubmissionID: id,
			Submitter:    attrs["submitter"],
			DataURI:      attrs["dataUri"],
			Digest:       attrs["digest"],
			Status:       "pending",
			CreatedAt:    now,
			UpdatedAt:    now,
		}).Error
	case events.TypeSubmissionApproved:
		return i.setSubmissionStatus(tx, attrs["id"], "approved")
	case events.TypeSubmissionRejected:
		return i.setSubmissionStatus(tx, attrs["id"], "rejected")
	case events.TypeStreakBonusPaid:
		return i.recordReward(tx, attrs["account"], "streak", attrs["amount"])
	case events.TypeReferralBonusPaid:
		return i.recordReward(tx, attrs["referrer"], "referral", attrs["amount"])
	case events.TypeLevelClaimRewarded:
		return i.recordReward(tx, attrs["account"], "level", attrs["amount"])
	case events.TypeClaimableCredited:
		return i.recordReward(tx, attrs["account"], attrs["reason"], attrs["amount"])
	default:
		return nil
	}
}

func (i *Indexer) setSubmissionStatus(tx *gorm.DB, rawID, status string) error {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return err
	}
	return tx.Model(&SubmissionRecord{}).
		Where("submission_id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (i *Indexer) recordReward(tx *gorm.DB, account, kind, amount string) error {
	metrics.Node().ObserveRewardPaid(kind)
	return tx.Create(&RewardRecord{
		ID:        uuid.New(),
		Account:   account,
		Kind:      kind,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}).Error
}

// EventsByAccount returns the most recent events touching an account.
func (i *Indexer) EventsByAccount(ctx context.Context, account string, limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []EventRecord
	err := i.db.WithContext(ctx).
		Where("account = ?", account).
		Order("created_at desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// SubmissionsByStatus lists projected submissions in a given state.
func (i *Indexer) SubmissionsByStatus(ctx context.Context, status string) ([]SubmissionRecord, error) {
	var records []SubmissionRecord
	err := i.db.WithContext(ctx).
		Where("status = ?", status).
		Order("submission_id asc").
		Find(&records).Error
	return records, err
}

// RewardsByAccount lists payout credits recorded for an account.
func (i *Indexer) RewardsByAccount(ctx context.Context, account string) ([]RewardRecord, error) {
	var records []RewardRecord
	err := i.db.WithContext(ctx).
		Where("account = ?", account).
		Order("created_at asc").
		Find(&records).Error
	return records, err
}

func accountOf(attrs map[string]string) string {
	for _, key := range []string{"account", "user", "submitter", "to", "from"} {
		if v, ok := attrs[key]; ok && v != "" {
			return v
		}
	}
	return ""
}
