// Package main runs the solguard HTTP service: token check API, progress
// websocket, usage limits, health/status/metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"solguard/internal/check"
	"solguard/internal/domain"
	"solguard/internal/limits"
	"solguard/internal/observability"
	"solguard/internal/reconcile"
	"solguard/internal/reporting"
	"solguard/internal/solana"
	"solguard/internal/sources"
	"solguard/internal/storage"
	"solguard/internal/storage/memory"
	"solguard/internal/storage/migrations"
	pgstore "solguard/internal/storage/postgres"
)

// limitDeniedText is returned with HTTP 429 when the caller's daily check
// cap is reached.
const limitDeniedText = "You have reached your daily limit of token checks.\n" +
	"Please subscribe to our premium plan for unlimited checks!"

// anonymousIdentity is shared by callers that send no X-Client-ID header.
const anonymousIdentity = "anonymous"

// Server holds the HTTP service state.
type Server struct {
	checker *check.Checker
	gate    limits.Gate
	log     zerolog.Logger
	started time.Time

	// config echo for /status
	rpcEndpoint string
	ledger      string
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	addr := flag.String("addr", envOr("SOLGUARD_ADDR", ":8080"), "HTTP listen address")
	rpcEndpoint := flag.String("rpc-endpoint", envOr("SOLANA_RPC_ENDPOINT", solana.DefaultEndpoint), "Solana RPC HTTP endpoint")
	birdeyeKey := flag.String("birdeye-key", os.Getenv("BIRDEYE_API_KEY"), "Birdeye API key for the holder fallback")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for the usage ledger")
	useMemory := flag.Bool("use-memory", false, "Use an in-memory usage ledger instead of PostgreSQL")
	unlimitedUsers := flag.String("unlimited-users", os.Getenv("SOLGUARD_UNLIMITED_USERS"), "Comma-separated usernames with unlimited checks")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal().Msg("either -postgres-dsn or -use-memory is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, ledger, cleanup, err := createUsageStore(ctx, *postgresDSN, *useMemory)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create usage store")
	}
	defer cleanup()

	gate := limits.NewManager(store,
		limits.WithUnlimited(splitList(*unlimitedUsers)...),
		limits.WithLogger(logger),
	)

	rpc := solana.NewClient(*rpcEndpoint)
	checker := check.New(check.Options{
		Market:          sources.NewDexScreener(),
		Holders:         sources.NewRPCHolders(rpc),
		HoldersFallback: sources.NewBirdeye(sources.WithBirdeyeKey(*birdeyeKey)),
		Metadata:        sources.NewRPCMetadata(rpc),
		Security:        sources.NewRugcheck(),
		Logger:          logger,
	})

	server := &Server{
		checker:     checker,
		gate:        gate,
		log:         logger,
		started:     time.Now(),
		rpcEndpoint: *rpcEndpoint,
		ledger:      ledger,
	}

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server.routes(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")

		// Second signal forces immediate exit
		go func() {
			sig := <-sigCh
			logger.Warn().Str("signal", sig.String()).Msg("forcing immediate shutdown")
			os.Exit(1)
		}()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
		cancel()
	}()

	go trackUptime(ctx)

	logger.Info().
		Str("addr", *addr).
		Str("rpc", *rpcEndpoint).
		Str("ledger", ledger).
		Msg("solguard server starting")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}

	logger.Info().Msg("shutdown complete")
}

// createUsageStore builds the usage ledger, applying migrations when the
// backend is PostgreSQL. The returned name is echoed on /status.
func createUsageStore(ctx context.Context, dsn string, useMemory bool) (storage.UsageStore, string, func(), error) {
	if useMemory {
		return memory.NewStore(), "memory", func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, "", nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, "", nil, fmt.Errorf("apply migrations: %w", err)
	}
	return pgstore.NewStore(pool), "postgres", pool.Close, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/tokens/{mint}/report", s.handleReport)
	mux.HandleFunc("GET /api/v1/tokens/{mint}/narrative", s.handleNarrative)
	mux.HandleFunc("GET /ws/v1/tokens/{mint}/check", s.handleCheckStream)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", observability.Handler())

	return mux
}

// identity returns the caller identity and optional display name.
// Anonymous callers share one identity.
func identity(r *http.Request) (string, string) {
	id := strings.TrimSpace(r.Header.Get("X-Client-ID"))
	if id == "" {
		id = anonymousIdentity
	}
	return id, strings.TrimSpace(r.Header.Get("X-Client-Name"))
}

// runCheck gates the caller and runs one analysis, writing the error
// response itself when the check cannot deliver a result.
func (s *Server) runCheck(w http.ResponseWriter, r *http.Request, onStage check.StageFunc) (*check.Result, bool) {
	id, name := identity(r)
	if d := s.gate.MayProceed(r.Context(), id, name); !d.Allowed {
		http.Error(w, limitDeniedText, http.StatusTooManyRequests)
		return nil, false
	}

	result, err := s.checker.Run(r.Context(), r.PathValue("mint"), onStage)
	if err != nil {
		status, msg := checkErrorResponse(err)
		http.Error(w, msg, status)
		return nil, false
	}
	return result, true
}

// checkErrorResponse maps pipeline errors to an HTTP status and body.
func checkErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidMint):
		return http.StatusBadRequest, "invalid mint address"
	case errors.Is(err, reconcile.ErrNoMarketData):
		return http.StatusNotFound, reporting.RenderFailure()
	default:
		return http.StatusBadGateway, "upstream providers unavailable"
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runCheck(w, r, nil)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reporting.BuildRecord(result.Snapshot, result.Assessment))
}

func (s *Server) handleNarrative(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runCheck(w, r, nil)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, reporting.RenderNarrative(result.Snapshot, result.Assessment))
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsEvent is one frame on the check stream.
type wsEvent struct {
	Type   string            `json:"type"` // stage, result or error
	Stage  string            `json:"stage,omitempty"`
	Record *reporting.Record `json:"record,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// handleCheckStream upgrades to a websocket, streams one frame per
// pipeline stage and finishes with a result or error frame. Stage frames
// are written from the checker's callback goroutine; the final frame only
// after Run returned, when all callbacks have completed.
func (s *Server) handleCheckStream(w http.ResponseWriter, r *http.Request) {
	id, name := identity(r)
	if d := s.gate.MayProceed(r.Context(), id, name); !d.Allowed {
		http.Error(w, limitDeniedText, http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	result, err := s.checker.Run(r.Context(), r.PathValue("mint"), func(stage check.Stage) {
		if err := conn.WriteJSON(wsEvent{Type: "stage", Stage: string(stage)}); err != nil {
			s.log.Debug().Err(err).Msg("stage frame write failed")
		}
	})
	if err != nil {
		_, msg := checkErrorResponse(err)
		_ = conn.WriteJSON(wsEvent{Type: "error", Error: msg})
		return
	}

	record := reporting.BuildRecord(result.Snapshot, result.Assessment)
	if err := conn.WriteJSON(wsEvent{Type: "result", Record: record}); err != nil {
		s.log.Debug().Err(err).Msg("result frame write failed")
	}
}

// statusResponse is the JSON response for the /status endpoint.
type statusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	Started     time.Time `json:"started"`
	RPCEndpoint string    `json:"rpc_endpoint"`
	UsageLedger string    `json:"usage_ledger"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:      "running",
		Uptime:      time.Since(s.started).String(),
		Started:     s.started,
		RPCEndpoint: s.rpcEndpoint,
		UsageLedger: s.ledger,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// trackUptime advances the uptime counter once per second.
func trackUptime(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.AddUptime(1)
		}
	}
}

// envOr returns the environment value or a fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
