// Package backend defines the contracts between the capability layer and an
// inference runtime: a tokenizer and a sequence translator/scorer, loaded
// together from a model's artifact directory.
//
// Implementations:
//
//   - remote: tokenizer and translator served by an inference sidecar over
//     HTTP; the vocabulary is read locally from tokenizer.json.
//   - llama: in-process decoder-only runtime on go-llama.cpp, enabled with
//     `-tags=llama`. A stub returning a dependency error is built otherwise.
//   - backendtest: deterministic fixtures for tests.
package backend

import (
	"context"

	"lmapi/pkg/types"
)

// TokenizerFile is the tokenizer definition inside an artifact directory.
const TokenizerFile = "tokenizer.json"

// Encoding is the result of tokenizing one text.
type Encoding struct {
	Tokens []string
	IDs    []int
}

// Tokenizer converts between text and token pieces.
type Tokenizer interface {
	Encode(ctx context.Context, text string, addSpecialTokens bool) (Encoding, error)
	Decode(ctx context.Context, ids []int, skipSpecialTokens bool) (string, error)
	// TokenToID looks a piece up in the vocabulary.
	TokenToID(token string) (int, bool)
}

// SamplingParams are shared by every sequence of a TranslateBatch call.
type SamplingParams struct {
	MaxDecodingLength int        `json:"max_decoding_length"`
	Temperature       float64    `json:"sampling_temperature"`
	TopK              int        `json:"sampling_topk"`
	RepetitionPenalty float64    `json:"repetition_penalty"`
	BeamSize          int        `json:"beam_size"`
	SuppressSequences [][]string `json:"suppress_sequences,omitempty"`
}

// TranslationResult holds the hypotheses for one source sequence, best first.
// Hypotheses include the target prefix tokens.
type TranslationResult struct {
	Hypotheses [][]string `json:"hypotheses"`
	Scores     []float64  `json:"scores,omitempty"`
}

// ScoringResult holds the per-token log probabilities of one scored sequence.
type ScoringResult struct {
	Tokens   []string  `json:"tokens"`
	LogProbs []float64 `json:"log_probs"`
}

// Sum is the log probability of the whole sequence.
func (r ScoringResult) Sum() float64 {
	var s float64
	for _, lp := range r.LogProbs {
		s += lp
	}
	return s
}

// Translator runs generation and scoring over token pieces.
type Translator interface {
	// TranslateBatch returns one result per source sequence. targetPrefix has
	// one entry per source; entries may be empty.
	TranslateBatch(ctx context.Context, source, targetPrefix [][]string, params SamplingParams) ([]TranslationResult, error)
	// ScoreBatch scores target conditioned on source. A nil target scores each
	// source as a whole sequence, as decoder-only models do.
	ScoreBatch(ctx context.Context, source, target [][]string) ([]ScoringResult, error)
}

// Artifacts are the loaded runtime handles for one model.
type Artifacts struct {
	Tokenizer  Tokenizer
	Translator Translator
	Info       types.ModelInfo
	closer     func() error
}

// NewArtifacts bundles a tokenizer and translator. close may be nil.
func NewArtifacts(info types.ModelInfo, tok Tokenizer, tr Translator, close func() error) Artifacts {
	return Artifacts{Tokenizer: tok, Translator: tr, Info: info, closer: close}
}

// Close releases runtime resources.
func (a Artifacts) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// Loader loads the artifacts of one model.
type Loader interface {
	Load(ctx context.Context, info types.ModelInfo) (Artifacts, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, info types.ModelInfo) (Artifacts, error)

func (f LoaderFunc) Load(ctx context.Context, info types.ModelInfo) (Artifacts, error) {
	return f(ctx, info)
}
