package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lmapi/internal/httpapi"
)

type serveFlags struct {
	addr            string
	corsOrigins     string
	maxBodyBytes    int64
	rateLimitRPS    float64
	rateLimitBurst  int
	requestTimeout  time.Duration
	maxPromptTokens int
	preload         bool
}

func serveCmd(s *settings) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the HTTP API",
		Example: "  lmapi serve --addr :8080 --artifact-dir ~/models/lmapi",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.merge(cmd, s)
			return serve(cmd.Context(), s, f)
		},
	}
	defaultAddr := ":8080"
	if v := os.Getenv("LMAPI_ADDR"); v != "" {
		defaultAddr = v
	}
	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", defaultAddr, "HTTP listen address, e.g. :8080 (defaults LMAPI_ADDR)")
	fl.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated CORS origins; empty disables CORS")
	fl.Int64Var(&f.maxBodyBytes, "max-body-bytes", 1<<20, "Maximum JSON request body size")
	fl.Float64Var(&f.rateLimitRPS, "rate-limit-rps", 0, "Completion requests per second (0=unlimited)")
	fl.IntVar(&f.rateLimitBurst, "rate-limit-burst", 0, "Rate limit burst (0=ceil(rps))")
	fl.DurationVar(&f.requestTimeout, "request-timeout", 0, "Per-request model call timeout (0=none)")
	fl.IntVar(&f.maxPromptTokens, "max-prompt-tokens", 0, "Reject prompts longer than this many tokens (0=unlimited)")
	fl.BoolVar(&f.preload, "preload", true, "Load the model at startup instead of on every request")
	return cmd
}

// merge fills flags the user did not set from the config file.
func (f *serveFlags) merge(cmd *cobra.Command, s *settings) {
	fl := cmd.Flags()
	file := s.file
	if !fl.Changed("addr") && file.Addr != "" {
		f.addr = file.Addr
	}
	if !fl.Changed("cors-origins") && len(file.CORSOrigins) > 0 {
		f.corsOrigins = strings.Join(file.CORSOrigins, ",")
	}
	if !fl.Changed("max-body-bytes") && file.MaxBodyBytes > 0 {
		f.maxBodyBytes = file.MaxBodyBytes
	}
	if !fl.Changed("rate-limit-rps") && file.RateLimitRPS > 0 {
		f.rateLimitRPS = file.RateLimitRPS
	}
	if !fl.Changed("rate-limit-burst") && file.RateLimitBurst > 0 {
		f.rateLimitBurst = file.RateLimitBurst
	}
	if !fl.Changed("request-timeout") && file.RequestTimeout != "" {
		if d, err := time.ParseDuration(file.RequestTimeout); err == nil {
			f.requestTimeout = d
		} else {
			s.log.Warn().Str("request_timeout", file.RequestTimeout).Msg("ignoring invalid request_timeout")
		}
	}
	if fl.Changed("max-prompt-tokens") {
		s.file.MaxPromptTokens = f.maxPromptTokens
	}
	if !fl.Changed("preload") && file.Preload != nil {
		f.preload = *file.Preload
	}
}

func serve(parent context.Context, s *settings, f serveFlags) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := s.openManager(!f.preload)
	if err != nil {
		return err
	}
	defer m.Close()

	httpapi.SetLogger(s.log)
	httpapi.SetDefaultLogLevel(s.logLevel)
	httpapi.SetMaxBodyBytes(f.maxBodyBytes)
	httpapi.SetRateLimit(f.rateLimitRPS, f.rateLimitBurst)
	httpapi.SetRequestTimeout(f.requestTimeout)
	origins := splitCSV(f.corsOrigins)
	httpapi.SetCORSOptions(len(origins) > 0, origins,
		[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
		[]string{"Content-Type", "Authorization", "X-Log-Level"})
	httpapi.SetBaseContext(ctx)

	if f.preload {
		// failures are logged by the manager and reported by /status
		go func() { _ = m.Preload(ctx) }()
	}

	srv := &http.Server{
		Addr:              f.addr,
		Handler:           httpapi.NewMux(m),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", f.addr).Str("model", m.ModelName()).Str("artifact_dir", s.artifactDir).Bool("preload", f.preload).Msg("lmapi listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
