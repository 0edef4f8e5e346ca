package auth

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *LevelDBNonceStore {
	t.Helper()
	store, err := NewLevelDBNonceStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func record(nonce string, at time.Time) NonceRecord {
	return NonceRecord{
		Caller:     "eco1caller",
		Timestamp:  "1700000000",
		Nonce:      nonce,
		ObservedAt: at,
	}
}

func TestLevelDBNonceStoreDetectsReplay(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()

	seen, err := store.EnsureNonce(ctx, record("n1", now))
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if seen {
		t.Fatal("fresh nonce reported as seen")
	}

	seen, err = store.EnsureNonce(ctx, record("n1", now.Add(time.Second)))
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if !seen {
		t.Fatal("replayed nonce not detected")
	}

	seen, err = store.EnsureNonce(ctx, record("n2", now))
	if err != nil {
		t.Fatalf("third ensure: %v", err)
	}
	if seen {
		t.Fatal("distinct nonce reported as seen")
	}
}

func TestLevelDBNonceStoreRejectsIncompleteRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for name, rec := range map[string]NonceRecord{
		"no caller":    {Timestamp: "1", Nonce: "n"},
		"no timestamp": {Caller: "c", Nonce: "n"},
		"no nonce":     {Caller: "c", Timestamp: "1"},
	} {
		if _, err := store.EnsureNonce(ctx, rec); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLevelDBNonceStorePrunesOldEntries(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0).UTC()

	if _, err := store.EnsureNonce(ctx, record("old", base)); err != nil {
		t.Fatalf("ensure old: %v", err)
	}
	if _, err := store.EnsureNonce(ctx, record("fresh", base.Add(time.Hour))); err != nil {
		t.Fatalf("ensure fresh: %v", err)
	}

	if err := store.PruneNonces(ctx, base.Add(30*time.Minute)); err != nil {
		t.Fatalf("prune: %v", err)
	}

	// The pruned nonce can be used again; the fresh one is still tracked.
	seen, err := store.EnsureNonce(ctx, record("old", base.Add(2*time.Hour)))
	if err != nil {
		t.Fatalf("ensure pruned: %v", err)
	}
	if seen {
		t.Fatal("pruned nonce still reported as seen")
	}
	seen, err = store.EnsureNonce(ctx, record("fresh", base.Add(2*time.Hour)))
	if err != nil {
		t.Fatalf("ensure kept: %v", err)
	}
	if !seen {
		t.Fatal("unpruned nonce forgotten")
	}
}

func TestObservedKeyOrdering(t *testing.T) {
	early := observedKey(time.Unix(100, 0).UnixNano(), "a|1|n")
	late := observedKey(time.Unix(200, 0).UnixNano(), "a|1|n")
	if compareKeys([]byte(early), []byte(late)) >= 0 {
		t.Fatalf("key ordering broken: %q !< %q", early, late)
	}
	composite, nanos, ok := parseObservedKey([]byte(late))
	if !ok || composite != "a|1|n" || nanos != time.Unix(200, 0).UnixNano() {
		t.Fatalf("parse failed: %q %d %v", composite, nanos, ok)
	}
}
