// Package rank orders a fixed set of candidate answers by their likelihood
// under the loaded model.
package rank

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"lmapi/internal/backend"
	"lmapi/pkg/types"
)

// ErrNoCandidates is returned when Rank is called without candidates.
var ErrNoCandidates = errors.New("rank: no candidates")

// Strategy selects how a (prompt, candidate) pair is scored.
type Strategy int

const (
	// Conditional scores the candidate as the target of the prompt
	// (encoder-decoder models).
	Conditional Strategy = iota
	// Concatenated scores prompt followed by candidate as one sequence
	// (decoder-only models).
	Concatenated
)

func (s Strategy) String() string {
	if s == Concatenated {
		return "concatenated"
	}
	return "conditional"
}

// StrategyFor picks the strategy from the model's architecture.
func StrategyFor(info types.ModelInfo) Strategy {
	if info.DecoderOnly() {
		return Concatenated
	}
	return Conditional
}

// Ranker scores candidates for one loaded model.
type Ranker struct {
	tok      backend.Tokenizer
	tr       backend.Translator
	model    string
	strategy Strategy
	cache    *ScoreCache
}

// New returns a Ranker over loaded artifacts. cache may be nil.
func New(a backend.Artifacts, cache *ScoreCache) *Ranker {
	return &Ranker{
		tok:      a.Tokenizer,
		tr:       a.Translator,
		model:    a.Info.Name,
		strategy: StrategyFor(a.Info),
		cache:    cache,
	}
}

// Strategy reports the scoring strategy in use.
func (r *Ranker) Strategy() Strategy { return r.strategy }

type pair struct {
	prompt, cand int
	key          string
}

// Rank returns, for each prompt, every candidate ordered from most to least
// likely. Equal scores keep the candidates' original order. All uncached
// pairs are scored in a single backend call.
func (r *Ranker) Rank(ctx context.Context, prompts, candidates []string) ([][]string, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if len(prompts) == 0 {
		return [][]string{}, nil
	}

	scores := make([][]float64, len(prompts))
	var misses []pair
	for i, p := range prompts {
		scores[i] = make([]float64, len(candidates))
		for j, c := range candidates {
			key := cacheKey(r.model, r.strategy, p, c)
			if r.cache != nil {
				if v, ok := r.cache.get(key); ok {
					scores[i][j] = v
					continue
				}
			}
			misses = append(misses, pair{prompt: i, cand: j, key: key})
		}
	}

	if len(misses) > 0 {
		if err := r.score(ctx, prompts, candidates, misses, scores); err != nil {
			return nil, err
		}
	}

	out := make([][]string, len(prompts))
	for i := range prompts {
		order := make([]int, len(candidates))
		for j := range order {
			order[j] = j
		}
		s := scores[i]
		sort.SliceStable(order, func(a, b int) bool { return s[order[a]] > s[order[b]] })
		ranked := make([]string, len(order))
		for k, j := range order {
			ranked[k] = candidates[j]
		}
		out[i] = ranked
	}
	return out, nil
}

func (r *Ranker) score(ctx context.Context, prompts, candidates []string, misses []pair, scores [][]float64) error {
	promptToks := make(map[int][]string)
	candToks := make(map[int][]string)
	for _, m := range misses {
		if _, ok := promptToks[m.prompt]; !ok {
			enc, err := r.tok.Encode(ctx, prompts[m.prompt], false)
			if err != nil {
				return backend.Wrap("encode", err)
			}
			promptToks[m.prompt] = enc.Tokens
		}
		if _, ok := candToks[m.cand]; !ok {
			enc, err := r.tok.Encode(ctx, candidates[m.cand], false)
			if err != nil {
				return backend.Wrap("encode", err)
			}
			candToks[m.cand] = enc.Tokens
		}
	}

	source := make([][]string, len(misses))
	var target [][]string
	if r.strategy == Conditional {
		target = make([][]string, len(misses))
	}
	for k, m := range misses {
		in, cand := promptToks[m.prompt], candToks[m.cand]
		if r.strategy == Concatenated {
			seq := make([]string, 0, len(in)+len(cand))
			source[k] = append(append(seq, in...), cand...)
			continue
		}
		source[k] = in
		target[k] = cand
	}

	results, err := r.tr.ScoreBatch(ctx, source, target)
	if err != nil {
		return backend.Wrap("score", err)
	}
	if len(results) != len(misses) {
		return backend.Wrap("score", fmt.Errorf("got %d scores for %d pairs", len(results), len(misses)))
	}
	for k, m := range misses {
		v := results[k].Sum()
		scores[m.prompt][m.cand] = v
		if r.cache != nil {
			r.cache.set(m.key, v)
		}
	}
	return nil
}
