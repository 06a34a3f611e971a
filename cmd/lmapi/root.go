package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"lmapi/internal/config"
)

// settings collects persistent flags, the optional config file and the
// environment for every command.
type settings struct {
	configPath     string
	artifactDir    string
	backendURL     string
	backendRetries int
	logLevel       string
	logFormat      string
	sets           []string

	// getenv reads the environment; nil means os.Getenv.
	getenv func(string) string

	file config.File
	log  zerolog.Logger
}

func (s *settings) env(key string) string {
	if s.getenv != nil {
		return s.getenv(key)
	}
	return os.Getenv(key)
}

// buildRootCmd constructs the command tree wired to s.
func buildRootCmd(s *settings) *cobra.Command {
	root := &cobra.Command{
		Use:           "lmapi",
		Short:         "Instruction-following language model toolkit and HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&s.configPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	pf.StringVar(&s.artifactDir, "artifact-dir", "", "Model artifact directory (defaults LMAPI_ARTIFACT_DIR or LLM_ARTIFACT_DIR)")
	pf.StringVar(&s.backendURL, "backend-url", "", "Inference sidecar URL (defaults LMAPI_BACKEND_URL); empty uses the in-process runtime")
	pf.IntVar(&s.backendRetries, "backend-retries", 0, "Retries for failed sidecar requests")
	pf.StringVar(&s.logLevel, "log-level", "", "Log level: debug|info|warn|error|off (defaults LMAPI_LOG_LEVEL or info)")
	pf.StringVar(&s.logFormat, "log-format", "console", "Log format: console|json")
	pf.StringArrayVar(&s.sets, "set", nil, "Override a model option, e.g. --set max_ram=4gb (repeatable)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return s.prepare(cmd)
	}

	root.AddCommand(
		serveCmd(s),
		completeCmd(s),
		doCmd(s),
		chatCmd(s),
		classifyCmd(s),
		extractCmd(s),
		tokensCmd(s),
		fetchCmd(s),
		configCmd(s),
	)
	return root
}

// prepare merges the config file under the flags and sets up logging.
func (s *settings) prepare(cmd *cobra.Command) error {
	if s.configPath != "" {
		f, err := config.Load(s.configPath)
		if err != nil {
			return fmt.Errorf("config %s: %w", s.configPath, err)
		}
		s.file = f
	}
	flags := cmd.Flags()
	if !flags.Changed("artifact-dir") {
		s.artifactDir = firstNonEmpty(s.file.ArtifactDir, s.env("LMAPI_ARTIFACT_DIR"), s.env("LLM_ARTIFACT_DIR"))
	}
	if !flags.Changed("backend-url") {
		s.backendURL = firstNonEmpty(s.file.BackendURL, s.env("LMAPI_BACKEND_URL"))
	}
	if !flags.Changed("backend-retries") && s.file.BackendRetries > 0 {
		s.backendRetries = s.file.BackendRetries
	}
	if !flags.Changed("log-level") {
		s.logLevel = firstNonEmpty(s.file.LogLevel, s.env("LMAPI_LOG_LEVEL"), "info")
		if strings.EqualFold(s.env("LOGGING_LEVEL"), "DEBUG") {
			s.logLevel = "debug"
		}
	}
	l, err := newLogger(cmd.ErrOrStderr(), s.logLevel, s.logFormat)
	if err != nil {
		return err
	}
	s.log = l
	log.Logger = l
	return nil
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "off":
		lvl = zerolog.Disabled
	case "":
	default:
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("invalid log level %q", level)
		}
		lvl = parsed
	}
	switch format {
	case "json":
	case "console", "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
