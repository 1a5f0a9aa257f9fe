package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bananapics/internal/backend"
	"bananapics/internal/config"
	"bananapics/internal/engine"
	"bananapics/internal/httpapi"
)

func main() {
	// Optional .env for local development; real deployments set env directly.
	_ = godotenv.Load()
	if err := buildRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bananapicsd",
		Short:         "Image generation feed engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and its HTTP API",
		RunE:  runServe,
	}
	serve.Flags().String("addr", envOr("BANANAPICS_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	serve.Flags().String("backend-url", envOr("BANANAPICS_BACKEND_URL", ""), "Base URL of the generation service")
	serve.Flags().String("api-token", envOr("BANANAPICS_API_TOKEN", ""), "Bearer token for the generation service")
	serve.Flags().String("user-id", envOr("BANANAPICS_USER_ID", ""), "User id sent with backend requests")
	serve.Flags().String("model", envOr("BANANAPICS_MODEL", "banana-v1"), "Default generation model id")
	serve.Flags().String("ratio", envOr("BANANAPICS_RATIO", "1:1"), "Default aspect ratio")
	serve.Flags().String("quality", envOr("BANANAPICS_QUALITY", "standard"), "Default quality tier")
	serve.Flags().Int("poll-interval-ms", envOrInt("BANANAPICS_POLL_INTERVAL_MS", 3000), "Reconciliation poll interval in milliseconds")
	serve.Flags().Int("toast-duration-ms", envOrInt("BANANAPICS_TOAST_DURATION_MS", 3000), "Toast auto-dismiss duration in milliseconds")
	serve.Flags().String("previews-dir", envOr("BANANAPICS_PREVIEWS_DIR", ""), "Directory for transient attachment previews (empty = temp dir)")
	serve.Flags().String("cors-origins", envOr("BANANAPICS_CORS_ORIGINS", ""), "Comma-separated allowed CORS origins (empty disables CORS)")
	serve.Flags().String("config", envOr("BANANAPICS_CONFIG", ""), "Optional config file (.yaml/.json/.toml); flags override it")
	serve.Flags().String("log-level", envOr("BANANAPICS_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	root.AddCommand(serve)

	return root
}

func runServe(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	cfg := config.Config{}
	if path, _ := fs.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	// Flags (and their env defaults) win over file values.
	overrideString(fs, "addr", &cfg.Addr)
	overrideString(fs, "backend-url", &cfg.BackendURL)
	overrideString(fs, "api-token", &cfg.APIToken)
	overrideString(fs, "user-id", &cfg.UserID)
	overrideString(fs, "model", &cfg.DefaultModel)
	overrideString(fs, "ratio", &cfg.Ratio)
	overrideString(fs, "quality", &cfg.Quality)
	overrideInt(fs, "poll-interval-ms", &cfg.PollIntervalMS)
	overrideInt(fs, "toast-duration-ms", &cfg.ToastDurationMS)
	overrideString(fs, "previews-dir", &cfg.PreviewsDir)
	overrideString(fs, "cors-origins", &cfg.CORSOrigins)

	level, _ := fs.GetString("log-level")
	logger := newLogger(level)

	if cfg.BackendURL == "" {
		logger.Fatal().Msg("backend URL is required (--backend-url or BANANAPICS_BACKEND_URL)")
	}

	previews, err := engine.NewFilePreviewStore(cfg.PreviewsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("preview store init failed")
	}
	client := backend.New(cfg.BackendURL, cfg.APIToken)
	eng := engine.NewWithConfig(engine.EngineConfig{
		Backend:      client,
		Previews:     previews,
		UserID:       cfg.UserID,
		Settings:     engine.Settings{Model: cfg.DefaultModel, Ratio: cfg.Ratio, Quality: cfg.Quality},
		PollInterval: time.Duration(cfg.PollIntervalMS) * time.Millisecond,
		ToastTTL:     time.Duration(cfg.ToastDurationMS) * time.Millisecond,
		Logger:       logger.With().Str("component", "engine").Logger(),
	})

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()
	if err := eng.Start(startCtx); err != nil {
		logger.Fatal().Err(err).Msg("initial feed load failed")
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(logger.With().Str("component", "http").Logger())
	if origins := splitCSV(cfg.CORSOrigins); len(origins) > 0 {
		httpapi.SetCORSOptions(true, origins,
			[]string{"GET", "POST", "PUT", "DELETE"},
			[]string{"Accept", "Authorization", "Content-Type", "X-Log-Level"})
	}

	mux := httpapi.NewMux(eng)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("backend", cfg.BackendURL).Msg("bananapicsd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
	eng.Dispose()
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func overrideString(fs interface{ GetString(string) (string, error) }, name string, dst *string) {
	if v, err := fs.GetString(name); err == nil && v != "" {
		*dst = v
	}
}

func overrideInt(fs interface{ GetInt(string) (int, error) }, name string, dst *int) {
	if v, err := fs.GetInt(name); err == nil && v != 0 {
		*dst = v
	}
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
