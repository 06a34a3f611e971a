// Package llama runs decoder-only models in process on go-llama.cpp.
//
// The real runtime is compiled with `-tags=llama` and links libllama from
// ./bin (see cgo.go). Default builds get a stub whose Load fails with a
// dependency-unavailable error, keeping them CGO-free.
//
// Tokenization uses the artifact's tokenizer.json through the vocab package;
// generated text is re-encoded with it so callers see ordinary pieces.
// llama.cpp exposes no per-sequence log probabilities, so ScoreBatch always
// returns backend.ErrScoringUnsupported.
package llama

import "github.com/rs/zerolog"

// Options configure the runtime.
type Options struct {
	// ContextSize is the llama.cpp context window; zero uses 2048.
	ContextSize int
	// Threads used for prediction; zero uses 1.
	Threads int
	Logger  zerolog.Logger
}

const defaultContextSize = 2048

func (o Options) withDefaults() Options {
	if o.ContextSize <= 0 {
		o.ContextSize = defaultContextSize
	}
	if o.Threads <= 0 {
		o.Threads = 1
	}
	return o
}
