package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/acme/autocert"

	"github.com/boldtribe/kids-admin/internal/config"
	"github.com/boldtribe/kids-admin/internal/db"
	"github.com/boldtribe/kids-admin/internal/platform"
	"github.com/boldtribe/kids-admin/internal/session"
	"github.com/boldtribe/kids-admin/internal/store"
	"github.com/boldtribe/kids-admin/internal/web"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	envFile := ""
	for i, arg := range os.Args[1:] {
		switch arg {
		case "-env", "--env":
			if i+2 < len(os.Args) {
				envFile = os.Args[i+2]
			}
		case "-h", "-help", "--help":
			fmt.Print(`Usage: kids-admin [flags]

Configuration comes from the environment:
  APP_ENV, ADDR, DB_PATH, LOG_PATH,
  API_BASE_URL, API_FALLBACK_URL,
  TLS_DOMAIN, TLS_CACHE_DIR

Flags:
  -env <path>   load environment variables from a file first
  -h, -help     show this help and exit
`)
			os.Exit(0)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "error: loading %s: %v\n", envFile, err)
			os.Exit(1)
		}
	} else {
		// A local .env is optional.
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "path", cfg.DBPath)

	// Cookie-signing secret, auto-generated on first run.
	secret, err := store.GetSessionSecret(context.Background(), database)
	if err != nil {
		slog.Error("failed to get session secret", "error", err)
		os.Exit(1)
	}

	client := platform.NewClient(cfg, database)
	sessions := session.NewManager(database, client)
	if err := sessions.Init(context.Background()); err != nil {
		slog.Error("failed to restore session state", "error", err)
		os.Exit(1)
	}

	slog.Info("platform client ready",
		"base_url", cfg.APIBaseURL,
		"fallback_url", cfg.APIFallbackURL,
		"session", sessions.State(),
	)

	router, err := web.NewRouter(database, sessions, client, secret)
	if err != nil {
		slog.Error("failed to set up web router", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	err = serve(server, cfg)
	if err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// serve starts the HTTP server, with automatic certificates when a TLS
// domain is configured.
func serve(server *http.Server, cfg *config.Config) error {
	if cfg.TLSDomain == "" {
		slog.Info("server started", "addr", cfg.Addr)
		return server.ListenAndServe()
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomain),
		Cache:      autocert.DirCache(cfg.TLSCacheDir),
	}
	server.TLSConfig = &tls.Config{GetCertificate: manager.GetCertificate}

	// Answer ACME HTTP-01 challenges and redirect everything else.
	go func() {
		if err := http.ListenAndServe(":80", manager.HTTPHandler(nil)); err != nil {
			slog.Error("challenge listener error", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "tls_domain", cfg.TLSDomain)
	return server.ListenAndServeTLS("", "")
}
