package httpapi

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// zlog is an optional structured logger. If unset, the zerolog global logger is used.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logger() *zerolog.Logger {
	if zlog != nil {
		return zlog
	}
	return &log.Logger
}

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff
	case "error", "warn":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once; SetDefaultLogLevel overrides it.
var defaultLogLevel = func() LogLevel {
	// legacy switch for compatibility
	if strings.EqualFold(os.Getenv("LOGGING_LEVEL"), "DEBUG") {
		return LevelDebug
	}
	if v := os.Getenv("LMAPI_LOG_LEVEL"); v != "" {
		return parseLevel(v)
	}
	return LevelInfo
}()

// SetDefaultLogLevel sets the request log level used when a request carries
// no override.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// requestLog carries the per-request level and start time for a capability
// handler.
type requestLog struct {
	r     *http.Request
	lvl   LogLevel
	start time.Time
}

func startRequestLog(r *http.Request, kind string) requestLog {
	rl := requestLog{r: r, lvl: requestLogLevel(r), start: time.Now()}
	if rl.lvl >= LevelInfo {
		z := logger().Info().Str("path", r.URL.Path).Str("call", kind)
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Msg("request start")
	}
	return rl
}

// debug logs the request and response text when the level allows it.
func (rl requestLog) debug(prompt, completion string) {
	if rl.lvl < LevelDebug {
		return
	}
	z := logger().Debug().Str("prompt", prompt).Str("completion", completion)
	if rid := middleware.GetReqID(rl.r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg("request text")
}

func (rl requestLog) end(status int, err error) {
	if rl.lvl < LevelInfo && !(rl.lvl == LevelError && status >= http.StatusInternalServerError) {
		return
	}
	z := logger().Info()
	if status >= http.StatusInternalServerError {
		z = logger().Error()
	}
	z = z.Int("status", status).Dur("dur", time.Since(rl.start))
	if rid := middleware.GetReqID(rl.r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	if err != nil {
		z = z.Err(err)
	}
	z.Msg("request end")
}
