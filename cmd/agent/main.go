package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/broadcast"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/carrier"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/config"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/latency"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/llm"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/messaging"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/prompt"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/quality"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/respcache"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/response"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/store"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/store/migrations"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/tts"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/ttscache"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/warmup"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/webhook"
)

var (
	logPretty bool
	logLevel  string
	addr      string
)

func main() {
	root := &cobra.Command{
		Use:   "agent",
		Short: "Outbound voice sales agent",
	}
	root.PersistentFlags().BoolVar(&logPretty, "log-pretty", false, "console-format logs instead of JSON")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")

	warmupCmd := &cobra.Command{
		Use:   "warmup",
		Short: "Run the startup warmup sequence once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWarmup(cmd.Context())
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}

	root.AddCommand(serveCmd, warmupCmd, migrateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildClients wires the process-wide singletons every subcommand
// needs, following spec.md §5's "explicitly owned singletons with
// lifecycle" redesign of the source's module-level globals.
type clients struct {
	cfg      *config.Config
	store    *store.Store
	ttsCache *ttscache.Cache
	llm      *llm.Client
	tts      *tts.Client
	prompt   *prompt.Builder
	quality  *quality.Scorer
	respCache respcache.Store
	latency  *latency.Tracker
	carrier  *carrier.Client
}

func buildClients(ctx context.Context) (*clients, error) {
	cfg := config.Load()

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}

	ttsCache := ttscache.New(cfg.TTSMemoryCacheSize, cfg.TTSCacheDir)

	ttsClient, err := tts.New(ctx, ttsCache)
	if err != nil {
		return nil, fmt.Errorf("create tts client: %w", err)
	}

	llmClient, err := llm.New(ctx, cfg.LLMAPIKey, cfg.LLMModel)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	var respCache respcache.Store
	if cfg.RedisURL != "" {
		redisStore, err := respcache.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("create redis response cache: %w", err)
		}
		respCache = redisStore
	} else {
		respCache = respcache.NewMemoryStore(0)
	}

	return &clients{
		cfg:       cfg,
		store:     st,
		ttsCache:  ttsCache,
		llm:       llmClient,
		tts:       ttsClient,
		prompt:    prompt.New(),
		quality:   quality.New(cfg.QualityBaselineScore, cfg.QualityAlertMargin),
		respCache: respCache,
		latency:   latency.New(),
		carrier:   carrier.New(cfg.CarrierProjectID, cfg.CarrierAuthToken, cfg.CarrierSpace),
	}, nil
}

func runServe(ctx context.Context) error {
	obslog.Init(logPretty, logLevel)

	c, err := buildClients(ctx)
	if err != nil {
		return err
	}
	defer c.store.Close()

	warmupCtl := warmup.New(c.llm, c.tts, c.ttsCache, c.cfg.TTSVoice, c.cfg.TTSModel)
	go warmupCtl.Run(ctx, 20*time.Second)

	respEngine := response.New(response.Config{
		Cache:    c.respCache,
		CacheTTL: c.cfg.ResponseCacheTTL,
		LLM:      c.llm,
		TTS:      c.tts,
		Prompt:   c.prompt,
		Quality:  c.quality,
		Voice:    c.cfg.TTSVoice,
		Format:   c.cfg.TTSModel,
	})

	handler := webhook.New(webhook.Config{
		Store:            c.store,
		Response:         respEngine,
		TTSCache:         c.ttsCache,
		Broadcast:        broadcast.NewRegistry(),
		Carrier:          c.carrier,
		BaseURL:          c.cfg.WebhookBaseURL,
		AuthToken:        c.cfg.CarrierAuthToken,
		VerifySignatures: c.cfg.SignatureVerificationEnabled,
		Latency:          c.latency,
		Quality:          c.quality,
		FollowUp:         messaging.NewFollowUpSender(c.cfg.CarrierSMSFrom),
		Voice:            c.cfg.TTSVoice,
		Format:           c.cfg.TTSModel,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		obslog.Event("agent").Str("addr", addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	case <-runCtx.Done():
		obslog.Event("agent").Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func runWarmup(ctx context.Context) error {
	obslog.Init(logPretty, logLevel)

	c, err := buildClients(ctx)
	if err != nil {
		return err
	}
	defer c.store.Close()

	warmup.New(c.llm, c.tts, c.ttsCache, c.cfg.TTSVoice, c.cfg.TTSModel).Run(ctx, 20*time.Second)
	return nil
}

func runMigrate(ctx context.Context) error {
	obslog.Init(logPretty, logLevel)

	cfg := config.Load()
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := migrations.Up(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	obslog.Event("agent").Msg("migrations applied")
	return nil
}
