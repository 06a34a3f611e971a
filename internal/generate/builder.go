package generate

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"lmapi/internal/backend"
)

// Placeholder is replaced by the instruction in a prompt template.
const Placeholder = "{instruction}"

// Builder shapes requests for one loaded model.
type Builder struct {
	tok      backend.Tokenizer
	tr       backend.Translator
	template string
	// maxPromptTokens bounds encoded prompt length; zero disables the check.
	maxPromptTokens int
}

// NewBuilder returns a Builder over loaded artifacts.
func NewBuilder(a backend.Artifacts, maxPromptTokens int) *Builder {
	return &Builder{
		tok:             a.Tokenizer,
		tr:              a.Translator,
		template:        a.Info.Template(),
		maxPromptTokens: maxPromptTokens,
	}
}

// Prompt applies the model template to an instruction.
func (b *Builder) Prompt(instruction string) string {
	return strings.ReplaceAll(b.template, Placeholder, instruction)
}

// Generate runs one backend call for the whole batch and returns one
// left-trimmed text per instruction, in order. Backend failures are returned
// as backend.InferenceError without retry.
func (b *Builder) Generate(ctx context.Context, req Request) ([]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(req.Instructions) == 0 {
		return nil, nil
	}

	source := make([][]string, len(req.Instructions))
	for i, inst := range req.Instructions {
		enc, err := b.tok.Encode(ctx, b.Prompt(inst), true)
		if err != nil {
			return nil, backend.Wrap("encode", err)
		}
		if b.maxPromptTokens > 0 && len(enc.Tokens) > b.maxPromptTokens {
			return nil, TokenBudgetError{Tokens: len(enc.Tokens), Limit: b.maxPromptTokens}
		}
		source[i] = enc.Tokens
	}

	prefix, err := b.pieces(ctx, req.Prefix)
	if err != nil {
		return nil, err
	}
	targetPrefix := make([][]string, len(source))
	for i := range targetPrefix {
		targetPrefix[i] = prefix
	}

	var suppress [][]string
	for _, s := range req.Suppress {
		p, err := b.pieces(ctx, s)
		if err != nil {
			return nil, err
		}
		if len(p) > 0 {
			suppress = append(suppress, p)
		}
	}

	results, err := b.tr.TranslateBatch(ctx, source, targetPrefix, backend.SamplingParams{
		MaxDecodingLength: req.MaxTokens,
		Temperature:       req.Temperature,
		TopK:              req.TopK,
		RepetitionPenalty: req.RepetitionPenalty,
		BeamSize:          1,
		SuppressSequences: suppress,
	})
	if err != nil {
		return nil, backend.Wrap("translate", err)
	}
	if len(results) != len(source) {
		return nil, backend.Wrap("translate", fmt.Errorf("got %d results for %d prompts", len(results), len(source)))
	}

	out := make([]string, len(results))
	for i, r := range results {
		var hyp []string
		if len(r.Hypotheses) > 0 {
			hyp = r.Hypotheses[0]
		}
		text, err := b.decode(ctx, hyp)
		if err != nil {
			return nil, err
		}
		out[i] = strings.TrimLeftFunc(text, unicode.IsSpace)
	}
	return out, nil
}

func (b *Builder) pieces(ctx context.Context, s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	enc, err := b.tok.Encode(ctx, s, false)
	if err != nil {
		return nil, backend.Wrap("encode", err)
	}
	return enc.Tokens, nil
}

func (b *Builder) decode(ctx context.Context, pieces []string) (string, error) {
	ids := make([]int, len(pieces))
	for i, p := range pieces {
		id, ok := b.tok.TokenToID(p)
		if !ok {
			return "", backend.Wrap("decode", fmt.Errorf("token %q not in vocabulary", p))
		}
		ids[i] = id
	}
	text, err := b.tok.Decode(ctx, ids, true)
	if err != nil {
		return "", backend.Wrap("decode", err)
	}
	return text, nil
}
