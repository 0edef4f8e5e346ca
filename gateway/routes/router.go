package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ecochain/core"
	"ecochain/gateway/auth"
	"ecochain/gateway/middleware"
)

type Config struct {
	Node          *core.Node
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	ReplayGuard   *auth.ReplayGuard
}

// New assembles the gateway router. Read-only queries stay open, every
// mutating group sits behind the replay guard and, when configured, bearer
// auth with a group scope.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()
	h := &handlers{node: cfg.Node}

	obs := cfg.Observability
	if obs != nil {
		r.Use(obs.Middleware("root"))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	mount := func(prefix, name string, scopes []string, register func(chi.Router)) {
		r.Route(prefix, func(sr chi.Router) {
			if cfg.RateLimiter != nil {
				sr.Use(cfg.RateLimiter.Middleware(name))
			}
			if cfg.ReplayGuard != nil {
				sr.Use(cfg.ReplayGuard.Middleware)
			}
			if cfg.Authenticator != nil {
				sr.Use(cfg.Authenticator.Middleware(scopes...))
			}
			if obs != nil {
				sr.Use(obs.Middleware(name))
			}
			register(sr)
		})
	}

	mount("/v1/token", "token", nil, h.mountToken)
	mount("/v1/rewards", "rewards", nil, h.mountRewards)
	mount("/v1/submissions", "submissions", nil, h.mountSubmissions)
	mount("/v1/achievements", "achievements", nil, h.mountAchievements)
	mount("/v1/admin", "admin", []string{"admin"}, h.mountAdmin)

	r.Route("/v1/query", func(sr chi.Router) {
		if cfg.RateLimiter != nil {
			sr.Use(cfg.RateLimiter.Middleware("query"))
		}
		if obs != nil {
			sr.Use(obs.Middleware("query"))
		}
		h.mountQueries(sr)
	})

	return otelhttp.NewHandler(r, "ecochain-gateway")
}
