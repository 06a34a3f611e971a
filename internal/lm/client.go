// Package lm implements the public capabilities: complete, do, chat,
// classify and extract_answer, plus token and model introspection.
//
// A Client reads the configuration store on every call and acquires model
// artifacts from an ArtifactSource, so the same Client serves preloaded and
// lazily loaded models.
package lm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"lmapi/internal/backend"
	"lmapi/internal/config"
	"lmapi/internal/generate"
	"lmapi/internal/rank"
	"lmapi/pkg/types"
)

// ArtifactSource hands out loaded artifacts for the configured model.
type ArtifactSource interface {
	// Model returns metadata of the configured model without loading it.
	Model() (types.ModelInfo, error)
	// Acquire returns loaded artifacts and a release func the caller must
	// invoke when the call is done.
	Acquire(ctx context.Context) (backend.Artifacts, func(), error)
}

// Fixed serves one already loaded set of artifacts.
type Fixed backend.Artifacts

func (f Fixed) Model() (types.ModelInfo, error) { return f.Info, nil }

func (f Fixed) Acquire(context.Context) (backend.Artifacts, func(), error) {
	return backend.Artifacts(f), func() {}, nil
}

// TokenBudgetError reports a prompt longer than the configured budget.
type TokenBudgetError = generate.TokenBudgetError

// IsTokenBudget reports whether err is (or wraps) a TokenBudgetError.
func IsTokenBudget(err error) bool { return generate.IsTokenBudget(err) }

// Options configures a Client.
type Options struct {
	Store  *config.Store
	Source ArtifactSource
	// ScoreCache memoizes ranking scores; nil disables caching.
	ScoreCache *rank.ScoreCache
	// MaxPromptTokens bounds encoded prompts; zero disables the check.
	MaxPromptTokens int
	Logger          *zerolog.Logger
}

// Client runs capability calls against the configured model.
type Client struct {
	store           *config.Store
	src             ArtifactSource
	cache           *rank.ScoreCache
	maxPromptTokens int
	log             zerolog.Logger
}

var errNoSource = errors.New("lm: no artifact source")

// New returns a Client. Store and Source are required.
func New(opts Options) *Client {
	c := &Client{
		store:           opts.Store,
		src:             opts.Source,
		cache:           opts.ScoreCache,
		maxPromptTokens: opts.MaxPromptTokens,
		log:             zerolog.Nop(),
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	}
	return c
}

// ModelInfo returns metadata of the configured model.
func (c *Client) ModelInfo() (types.ModelInfo, error) {
	if c.src == nil {
		return types.ModelInfo{}, errNoSource
	}
	return c.src.Model()
}

// ModelName returns the configured model name.
func (c *Client) ModelName() string { return string(c.store.Snapshot().Name) }

// SetMaxRAM replaces the RAM budget and returns the stored value in gigabytes.
func (c *Client) SetMaxRAM(raw string) (float64, error) {
	gb, err := c.store.SetMaxRAM(raw)
	return float64(gb), err
}

func (c *Client) maxTokens() int { return int(c.store.Snapshot().MaxTokens) }

// withArtifacts acquires artifacts for one call and records its outcome.
func (c *Client) withArtifacts(ctx context.Context, call string, n int, fn func(backend.Artifacts) error) error {
	if c.src == nil {
		return errNoSource
	}
	a, release, err := c.src.Acquire(ctx)
	if err != nil {
		observeCall(call, err, 0)
		return err
	}
	defer release()
	start := time.Now()
	err = fn(a)
	dur := time.Since(start)
	observeCall(call, err, dur)
	ev := c.log.Debug()
	if err != nil {
		ev = c.log.Warn().Err(err)
	}
	ev.Str("call", call).Str("model", a.Info.Name).Int("prompts", n).Dur("dur", dur).Msg("lm call")
	return err
}

func (c *Client) generate(ctx context.Context, call string, req generate.Request) ([]string, error) {
	var out []string
	err := c.withArtifacts(ctx, call, len(req.Instructions), func(a backend.Artifacts) error {
		var err error
		out, err = generate.NewBuilder(a, c.maxPromptTokens).Generate(ctx, req)
		return err
	})
	return out, err
}

func (c *Client) rank(ctx context.Context, call string, prompts, candidates []string) ([][]string, error) {
	var out [][]string
	err := c.withArtifacts(ctx, call, len(prompts), func(a backend.Artifacts) error {
		var err error
		out, err = rank.New(a, c.cache).Rank(ctx, prompts, candidates)
		return err
	})
	return out, err
}
