// Package generate turns instructions into backend translation requests and
// decodes the hypotheses back into text.
package generate

import (
	"errors"
	"fmt"
)

// Defaults applied by NewRequest.
const (
	DefaultMaxTokens         = 200
	DefaultTemperature       = 0.1
	DefaultTopK              = 1
	DefaultRepetitionPenalty = 1.3
)

// Request describes one batch of generations sharing sampling settings.
type Request struct {
	Instructions      []string
	MaxTokens         int
	Temperature       float64
	TopK              int
	RepetitionPenalty float64
	// Prefix is forced at the start of every output and is part of the
	// decoded result.
	Prefix string
	// Suppress lists strings the output must not contain.
	Suppress []string
}

// NewRequest returns a greedy request over instructions.
func NewRequest(instructions ...string) Request {
	return Request{
		Instructions:      instructions,
		MaxTokens:         DefaultMaxTokens,
		Temperature:       DefaultTemperature,
		TopK:              DefaultTopK,
		RepetitionPenalty: DefaultRepetitionPenalty,
	}
}

// Validate checks the sampling settings.
func (r Request) Validate() error {
	switch {
	case r.MaxTokens <= 0:
		return fmt.Errorf("max tokens must be positive, got %d", r.MaxTokens)
	case r.Temperature < 0:
		return fmt.Errorf("temperature must be >= 0, got %g", r.Temperature)
	case r.TopK < 0:
		return fmt.Errorf("top-k must be >= 0, got %d", r.TopK)
	case r.RepetitionPenalty < 1:
		return fmt.Errorf("repetition penalty must be >= 1, got %g", r.RepetitionPenalty)
	}
	return nil
}

// TokenBudgetError reports a prompt longer than the configured token budget.
type TokenBudgetError struct {
	Tokens int
	Limit  int
}

func (e TokenBudgetError) Error() string {
	return fmt.Sprintf("prompt has %d tokens, limit is %d", e.Tokens, e.Limit)
}

// IsTokenBudget reports whether err is (or wraps) a TokenBudgetError.
func IsTokenBudget(err error) bool {
	var e TokenBudgetError
	return errors.As(err, &e)
}
