package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitchat/internal/assign"
	"github.com/mmynk/splitchat/internal/chat"
	"github.com/mmynk/splitchat/internal/config"
	"github.com/mmynk/splitchat/internal/currency"
	"github.com/mmynk/splitchat/internal/gemini"
	"github.com/mmynk/splitchat/internal/ingest"
	"github.com/mmynk/splitchat/internal/metrics"
	"github.com/mmynk/splitchat/internal/middleware"
	"github.com/mmynk/splitchat/internal/models"
	"github.com/mmynk/splitchat/internal/service"
	"github.com/mmynk/splitchat/internal/storage"
	"github.com/mmynk/splitchat/internal/storage/memory"
	"github.com/mmynk/splitchat/pkg/api/apiconnect"
	"github.com/mmynk/splitchat/pkg/logging"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	rates, closeRates, err := newRateProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRates()

	parser, interpreter, err := newCollaborators(ctx, cfg)
	if err != nil {
		return err
	}

	store := memory.New(cfg.SessionTTL)
	defer store.Close()
	go sweep(ctx, store, cfg.SessionTTL, m)

	orch := chat.New(parser, interpreter, m, slog.Default())
	svc := service.NewSplitService(store, orch, rates, m).WithTimeout(cfg.RequestTimeout)

	mux := http.NewServeMux()
	interceptors := connect.WithInterceptors(middleware.RequestID(), middleware.Logging(slog.Default(), m))
	splitPath, splitHandler := apiconnect.NewSplitServiceHandler(svc, interceptors)
	mux.Handle(splitPath, splitHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "ok")
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(middleware.CORS(cfg.CORSOrigins)(mux), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRateProvider returns the Frankfurter client, behind a Redis cache when
// REDIS_URL is set.
func newRateProvider(ctx context.Context, cfg *config.Config) (currency.RateProvider, func(), error) {
	provider := currency.NewHTTPProvider(cfg.RatesURL, cfg.RatesTimeout)
	if cfg.RedisURL == "" {
		slog.Info("Exchange rates uncached", "url", cfg.RatesURL)
		return provider, func() {}, nil
	}

	rdb, err := currency.NewRedisClient(ctx, cfg.RedisURL, cfg.RatesTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize rate cache: %w", err)
	}
	slog.Info("Exchange rates cached in Redis", "url", cfg.RatesURL, "ttl", cfg.RateCacheTTL)
	cached := currency.NewCachedProvider(provider, currency.NewRedisCache(rdb), cfg.RateCacheTTL, slog.Default())
	return cached, func() { rdb.Close() }, nil
}

// newCollaborators picks the receipt parser and interpreter. Without a Gemini
// key, receipts cannot be parsed and chat falls back to fixed phrasings.
func newCollaborators(ctx context.Context, cfg *config.Config) (ingest.ReceiptParser, assign.Interpreter, error) {
	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set; receipt parsing disabled, using pattern interpreter")
		parser := ingest.ParserFunc(func(context.Context, []models.Image) (*models.Receipt, error) {
			return nil, &ingest.ParseError{Err: errors.New("no receipt parser configured")}
		})
		return parser, assign.PatternInterpreter{}, nil
	}

	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Gemini collaborators enabled", "model", cfg.GeminiModel)
	return client, client, nil
}

// sweep evicts idle sessions until ctx is done.
func sweep(ctx context.Context, store storage.SessionStore, ttl time.Duration, m *metrics.Metrics) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(max(ttl/4, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := store.Sweep(ctx, now)
			if err != nil {
				slog.Warn("Session sweep interrupted", "error", err)
			}
			if removed > 0 {
				slog.Info("Expired idle sessions", "removed", removed)
			}
			m.SetSessions(store.Len())
		}
	}
}
