package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ecochain/config"
	"ecochain/core"
	"ecochain/gateway/auth"
	"ecochain/gateway/middleware"
	"ecochain/gateway/routes"
	"ecochain/observability/logging"
	"ecochain/observability/otel"
	"ecochain/services/indexer"
	"ecochain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis YAML file (overrides config GenesisFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("ecochaind", cfg.Environment, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, otel.Config{
		ServiceName: "ecochaind",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.Environment != "production",
	})
	if err != nil {
		logger.Error("tracing init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("prepare data directory", "error", err)
		os.Exit(1)
	}
	db, err := storage.NewDiskDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("open state database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	node, err := core.NewNode(db, logger)
	if err != nil {
		logger.Error("open node", "error", err)
		os.Exit(1)
	}

	genesisPath := strings.TrimSpace(*genesisFlag)
	if genesisPath == "" {
		genesisPath = strings.TrimSpace(cfg.GenesisFile)
	}
	if genesisPath != "" {
		if _, statErr := os.Stat(genesisPath); statErr == nil {
			gen, err := config.LoadGenesis(genesisPath)
			if err != nil {
				logger.Error("load genesis", "error", err)
				os.Exit(1)
			}
			if err := node.ApplyGenesis(gen); err != nil {
				logger.Error("apply genesis", "error", err)
				os.Exit(1)
			}
		} else if *genesisFlag != "" {
			// An explicitly requested genesis file must exist.
			logger.Error("genesis file not found", "path", genesisPath)
			os.Exit(1)
		}
	}

	idx, err := indexer.Open(cfg.IndexerPath, logger)
	if err != nil {
		logger.Error("open audit indexer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := idx.Close(); err != nil {
			logger.Warn("close indexer", "error", err)
		}
	}()
	node.SetEmitter(idx)

	nonceStore, err := auth.NewLevelDBNonceStore(cfg.NonceStorePath)
	if err != nil {
		logger.Error("open nonce store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := nonceStore.Close(); err != nil {
			logger.Warn("close nonce store", "error", err)
		}
	}()
	replayGuard := auth.NewReplayGuard(nonceStore, 5*time.Minute)
	go pruneLoop(ctx, replayGuard, logger)

	secret := strings.TrimSpace(os.Getenv(cfg.JWTSecretEnv))
	authenticator := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:    secret != "",
		HMACSecret: secret,
	}, logger)
	if secret == "" {
		logger.Warn("bearer auth disabled, no secret configured", "env", cfg.JWTSecretEnv)
	}

	limits := map[string]middleware.RateLimit{}
	for _, group := range []string{"token", "rewards", "submissions", "achievements", "admin", "query"} {
		limits[group] = middleware.RateLimit{
			RequestsPerMinute: cfg.RateLimitPerMin,
			Burst:             cfg.RateLimitBurst,
		}
	}

	handler := routes.New(routes.Config{
		Node:          node,
		Authenticator: authenticator,
		RateLimiter:   middleware.NewRateLimiter(limits),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName: "ecochain-gateway",
			Enabled:     true,
		}),
		ReplayGuard: replayGuard,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "address", cfg.ListenAddress)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("gateway server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", "error", err)
	}
}

func pruneLoop(ctx context.Context, guard *auth.ReplayGuard, logger *slog.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := guard.Prune(ctx); err != nil {
				logger.Warn("prune nonce store", "error", err)
			}
		}
	}
}
