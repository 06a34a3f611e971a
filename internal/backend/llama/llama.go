//go:build llama

package llama

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"

	"lmapi/internal/backend"
	"lmapi/internal/backend/vocab"
	"lmapi/pkg/types"
)

// Built reports whether this binary carries the in-process runtime.
const Built = true

// Loader loads GGUF weights named by the model's weights field.
type Loader struct {
	opts Options
}

func NewLoader(opts Options) *Loader { return &Loader{opts: opts.withDefaults()} }

func (l *Loader) Load(ctx context.Context, info types.ModelInfo) (backend.Artifacts, error) {
	if !info.DecoderOnly() {
		return backend.Artifacts{}, backend.Wrap("load", fmt.Errorf("%s: llama runtime needs a decoder-only model", info.Name))
	}
	if strings.TrimSpace(info.Weights) == "" {
		return backend.Artifacts{}, backend.Wrap("load", fmt.Errorf("%s: no weights file in bootstrap metadata", info.Name))
	}
	v, err := vocab.Load(filepath.Join(info.Path, backend.TokenizerFile))
	if err != nil {
		return backend.Artifacts{}, backend.Wrap("load", err)
	}
	if err := ctx.Err(); err != nil {
		return backend.Artifacts{}, err
	}
	m, err := llama.New(filepath.Join(info.Path, info.Weights), llama.SetContext(l.opts.ContextSize))
	if err != nil {
		return backend.Artifacts{}, backend.Wrap("load", err)
	}
	tok := vocab.NewTokenizer(v)
	tr := &translator{model: m, tok: tok, opts: l.opts}
	l.opts.Logger.Debug().Str("model", info.Name).Str("weights", info.Weights).Int("ctx", l.opts.ContextSize).Msg("llama runtime loaded")
	return backend.NewArtifacts(info, tok, tr, tr.close), nil
}

// translator serializes access to one llama.cpp context.
type translator struct {
	mu    sync.Mutex
	model *llama.LLama
	tok   *vocab.Tokenizer
	opts  Options
}

func (t *translator) TranslateBatch(ctx context.Context, source, targetPrefix [][]string, params backend.SamplingParams) ([]backend.TranslationResult, error) {
	if len(params.SuppressSequences) > 0 {
		t.opts.Logger.Debug().Int("sequences", len(params.SuppressSequences)).Msg("llama runtime ignores suppressed sequences")
	}
	out := make([]backend.TranslationResult, 0, len(source))
	for i, src := range source {
		var prefix []string
		if i < len(targetPrefix) {
			prefix = targetPrefix[i]
		}
		text, err := t.predict(ctx, t.tok.Text(src), t.tok.Text(prefix), params)
		if err != nil {
			return nil, err
		}
		enc, err := t.tok.Encode(ctx, text, false)
		if err != nil {
			return nil, backend.Wrap("encode", err)
		}
		hyp := append(append([]string(nil), prefix...), enc.Tokens...)
		out = append(out, backend.TranslationResult{Hypotheses: [][]string{hyp}})
	}
	return out, nil
}

func (t *translator) predict(ctx context.Context, prompt, prefix string, params backend.SamplingParams) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model == nil {
		return "", backend.Wrap("translate", errors.New("llama model not initialized"))
	}
	if prefix != "" {
		prompt = prompt + "\n" + prefix
	}
	t.model.SetTokenCallback(func(string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	})
	text, err := t.model.Predict(prompt, predictOptions(params, t.opts.Threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", backend.Wrap("translate", err)
	}
	return text, nil
}

func (t *translator) ScoreBatch(context.Context, [][]string, [][]string) ([]backend.ScoringResult, error) {
	return nil, backend.Wrap("score", backend.ErrScoringUnsupported)
}

func (t *translator) close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model != nil {
		t.model.Free()
		t.model = nil
	}
	return nil
}

func predictOptions(p backend.SamplingParams, threads int) []llama.PredictOption {
	return []llama.PredictOption{
		llama.SetTokens(max(1, p.MaxDecodingLength)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopK(zn(p.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(float32(p.Temperature), llama.DefaultOptions.Temperature)),
		llama.SetPenalty(zf(float32(p.RepetitionPenalty), llama.DefaultOptions.Penalty)),
	}
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}
