package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// NonceRecord identifies one observed mutating request. Caller, Timestamp and
// Nonce together must be unique inside the replay window.
type NonceRecord struct {
	Caller     string
	Timestamp  string
	Nonce      string
	ObservedAt time.Time
}

// NonceStore persists observed nonces across restarts so a replayed request
// is rejected even after the gateway process cycles.
type NonceStore interface {
	EnsureNonce(ctx context.Context, record NonceRecord) (seen bool, err error)
	PruneNonces(ctx context.Context, cutoff time.Time) error
	Close() error
}

const (
	headerNonce     = "X-Eco-Nonce"
	headerTimestamp = "X-Eco-Timestamp"
)

// ReplayGuard rejects mutating requests whose nonce has been seen before or
// whose timestamp falls outside the tolerance window.
type ReplayGuard struct {
	store     NonceStore
	tolerance time.Duration
	now       func() time.Time
}

func NewReplayGuard(store NonceStore, tolerance time.Duration) *ReplayGuard {
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	return &ReplayGuard{store: store, tolerance: tolerance, now: time.Now}
}

func (g *ReplayGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g == nil || g.store == nil || r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		nonce := strings.TrimSpace(r.Header.Get(headerNonce))
		ts := strings.TrimSpace(r.Header.Get(headerTimestamp))
		if nonce == "" || ts == "" {
			http.Error(w, "nonce and timestamp headers required", http.StatusBadRequest)
			return
		}
		unix, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			http.Error(w, "malformed timestamp", http.StatusBadRequest)
			return
		}
		now := g.now().UTC()
		stamped := time.Unix(unix, 0).UTC()
		if stamped.Before(now.Add(-g.tolerance)) || stamped.After(now.Add(g.tolerance)) {
			http.Error(w, "timestamp outside tolerance", http.StatusUnauthorized)
			return
		}
		caller := r.Header.Get("Authorization")
		seen, err := g.store.EnsureNonce(r.Context(), NonceRecord{
			Caller:     caller,
			Timestamp:  ts,
			Nonce:      nonce,
			ObservedAt: now,
		})
		if err != nil {
			http.Error(w, "nonce store unavailable", http.StatusInternalServerError)
			return
		}
		if seen {
			http.Error(w, "nonce already used", http.StatusConflict)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Prune removes entries older than the replay window. Callers run it on a
// timer alongside the HTTP server.
func (g *ReplayGuard) Prune(ctx context.Context) error {
	if g == nil || g.store == nil {
		return nil
	}
	return g.store.PruneNonces(ctx, g.now().UTC().Add(-2*g.tolerance))
}
