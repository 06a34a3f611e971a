// Package remote implements backend.Loader against an inference sidecar that
// owns the model runtime and tokenizer. Only the vocabulary is read locally,
// from the artifact's tokenizer.json.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"lmapi/internal/backend"
	"lmapi/internal/backend/vocab"
	"lmapi/pkg/types"
)

const defaultTimeout = 60 * time.Second

// Options configure the sidecar client.
type Options struct {
	// BaseURL of the sidecar, e.g. http://127.0.0.1:8500.
	BaseURL string
	// Timeout per request; zero means 60s.
	Timeout time.Duration
	// Retries on transport errors and 5xx responses; zero disables retries.
	Retries int
	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Loader connects to the sidecar for each model it loads.
type Loader struct {
	opts Options
}

// NewLoader returns a Loader. opts.BaseURL is required.
func NewLoader(opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Loader{opts: opts}
}

// Load reads the vocabulary and checks that the sidecar is reachable.
func (l *Loader) Load(ctx context.Context, info types.ModelInfo) (backend.Artifacts, error) {
	if strings.TrimSpace(l.opts.BaseURL) == "" {
		return backend.Artifacts{}, backend.ErrDependencyUnavailable("remote backend: no sidecar URL configured")
	}
	v, err := vocab.Load(filepath.Join(info.Path, backend.TokenizerFile))
	if err != nil {
		return backend.Artifacts{}, backend.Wrap("load", err)
	}
	c := newClient(l.opts, info.Name)
	if err := c.health(ctx); err != nil {
		return backend.Artifacts{}, backend.ErrDependencyUnavailable(fmt.Sprintf("inference sidecar %s: %v", l.opts.BaseURL, err))
	}
	l.opts.Logger.Debug().Str("model", info.Name).Int("vocab", len(v.IDs)).Str("url", l.opts.BaseURL).Msg("remote backend ready")
	return backend.NewArtifacts(info, &Tokenizer{c: c, vocab: v}, &Translator{c: c}, nil), nil
}

type client struct {
	r   *resty.Client
	log zerolog.Logger
}

func newClient(opts Options, model string) *client {
	var r *resty.Client
	if opts.HTTPClient != nil {
		r = resty.NewWithClient(opts.HTTPClient)
	} else {
		r = resty.New()
	}
	r.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader(HeaderModel, model).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if opts.Retries > 0 {
		r.SetRetryCount(opts.Retries)
		r.SetRetryWaitTime(200 * time.Millisecond)
		r.AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || (resp != nil && resp.StatusCode() >= 500 && resp.StatusCode() != http.StatusNotImplemented)
		})
	}
	return &client{r: r, log: opts.Logger.With().Str("backend", "remote").Str("model", model).Logger()}
}

// statusError is a non-2xx sidecar response.
type statusError struct {
	path   string
	status int
	msg    string
}

func (e *statusError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("%s: status %d", e.path, e.status)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.path, e.msg, e.status)
}

func (c *client) health(ctx context.Context) error {
	resp, err := c.r.R().SetContext(ctx).Get(PathHealth)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &statusError{path: PathHealth, status: resp.StatusCode()}
	}
	return nil
}

func (c *client) post(ctx context.Context, path string, body, out any) error {
	start := time.Now()
	resp, err := c.r.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(out).
		SetError(&ErrorBody{}).
		Post(path)
	if err != nil {
		return err
	}
	c.log.Debug().Str("path", path).Int("status", resp.StatusCode()).Dur("dur", time.Since(start)).Msg("sidecar call")
	if resp.IsError() {
		se := &statusError{path: path, status: resp.StatusCode()}
		if eb, ok := resp.Error().(*ErrorBody); ok && eb != nil {
			se.msg = eb.Error
		}
		return se
	}
	return nil
}

// Tokenizer encodes and decodes through the sidecar.
type Tokenizer struct {
	c     *client
	vocab *vocab.Vocab
}

func (t *Tokenizer) Encode(ctx context.Context, text string, addSpecialTokens bool) (backend.Encoding, error) {
	var out TokenizeResponse
	if err := t.c.post(ctx, PathTokenize, TokenizeRequest{Text: text, AddSpecialTokens: addSpecialTokens}, &out); err != nil {
		return backend.Encoding{}, backend.Wrap("encode", err)
	}
	if len(out.IDs) != len(out.Tokens) {
		return backend.Encoding{}, backend.Wrap("encode", fmt.Errorf("sidecar returned %d tokens and %d ids", len(out.Tokens), len(out.IDs)))
	}
	return backend.Encoding{Tokens: out.Tokens, IDs: out.IDs}, nil
}

func (t *Tokenizer) Decode(ctx context.Context, ids []int, skipSpecialTokens bool) (string, error) {
	var out DetokenizeResponse
	if err := t.c.post(ctx, PathDetokenize, DetokenizeRequest{IDs: ids, SkipSpecialTokens: skipSpecialTokens}, &out); err != nil {
		return "", backend.Wrap("decode", err)
	}
	return out.Text, nil
}

func (t *Tokenizer) TokenToID(token string) (int, bool) { return t.vocab.TokenToID(token) }

// Translator runs generation and scoring on the sidecar.
type Translator struct {
	c *client
}

func (t *Translator) TranslateBatch(ctx context.Context, source, targetPrefix [][]string, params backend.SamplingParams) ([]backend.TranslationResult, error) {
	var out TranslateResponse
	req := TranslateRequest{Source: source, TargetPrefix: targetPrefix, Params: params}
	if err := t.c.post(ctx, PathTranslate, req, &out); err != nil {
		return nil, backend.Wrap("translate", err)
	}
	if len(out.Results) != len(source) {
		return nil, backend.Wrap("translate", fmt.Errorf("sidecar returned %d results for %d sequences", len(out.Results), len(source)))
	}
	return out.Results, nil
}

func (t *Translator) ScoreBatch(ctx context.Context, source, target [][]string) ([]backend.ScoringResult, error) {
	var out ScoreResponse
	if err := t.c.post(ctx, PathScore, ScoreRequest{Source: source, Target: target}, &out); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusNotImplemented {
			return nil, backend.Wrap("score", backend.ErrScoringUnsupported)
		}
		return nil, backend.Wrap("score", err)
	}
	if len(out.Results) != len(source) {
		return nil, backend.Wrap("score", fmt.Errorf("sidecar returned %d results for %d sequences", len(out.Results), len(source)))
	}
	return out.Results, nil
}
