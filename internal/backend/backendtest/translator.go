package backendtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"lmapi/internal/backend"
)

// TranslateCall records one TranslateBatch invocation.
type TranslateCall struct {
	Source       [][]string
	TargetPrefix [][]string
	Params       backend.SamplingParams
}

// ScoreCall records one ScoreBatch invocation.
type ScoreCall struct {
	Source [][]string
	Target [][]string
}

// Translator answers generation with Respond and scoring with Score.
type Translator struct {
	// Respond returns the generated text for a prompt and target prefix.
	// Nil generates nothing beyond the prefix.
	Respond func(prompt, prefix string) string
	// Score returns the total log probability of candidate given context.
	// Nil uses LexiconScore.
	Score func(context, candidate string) float64
	// Err, when set, fails every call.
	Err error

	mu         sync.Mutex
	calls      []TranslateCall
	scoreCalls []ScoreCall
}

func (t *Translator) TranslateBatch(ctx context.Context, source, targetPrefix [][]string, params backend.SamplingParams) ([]backend.TranslationResult, error) {
	t.mu.Lock()
	t.calls = append(t.calls, TranslateCall{Source: source, TargetPrefix: targetPrefix, Params: params})
	t.mu.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]backend.TranslationResult, len(source))
	for i, src := range source {
		var prefix []string
		if i < len(targetPrefix) {
			prefix = targetPrefix[i]
		}
		var gen []string
		if t.Respond != nil {
			gen = Pieces(t.Respond(Text(src), Text(prefix)))
		}
		if params.MaxDecodingLength > 0 && len(gen) > params.MaxDecodingLength {
			gen = gen[:params.MaxDecodingLength]
		}
		hyp := append(append([]string(nil), prefix...), gen...)
		out[i] = backend.TranslationResult{Hypotheses: [][]string{hyp}}
	}
	return out, nil
}

func (t *Translator) ScoreBatch(ctx context.Context, source, target [][]string) ([]backend.ScoringResult, error) {
	t.mu.Lock()
	t.scoreCalls = append(t.scoreCalls, ScoreCall{Source: source, Target: target})
	t.mu.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	score := t.Score
	if score == nil {
		score = LexiconScore
	}
	out := make([]backend.ScoringResult, len(source))
	for i, src := range source {
		var ctxText, cand string
		toks := src
		if target != nil {
			ctxText, cand = Text(src), Text(target[i])
			toks = target[i]
		} else if len(src) > 0 {
			// whole sequence: the last piece is the candidate
			ctxText, cand = Text(src[:len(src)-1]), Text(src[len(src)-1:])
		}
		out[i] = spread(toks, score(ctxText, cand))
	}
	return out, nil
}

func spread(tokens []string, total float64) backend.ScoringResult {
	r := backend.ScoringResult{Tokens: tokens, LogProbs: make([]float64, len(tokens))}
	if len(tokens) == 0 {
		return r
	}
	for i := range r.LogProbs {
		r.LogProbs[i] = total / float64(len(tokens))
	}
	return r
}

// Calls returns the recorded TranslateBatch invocations.
func (t *Translator) Calls() []TranslateCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TranslateCall(nil), t.calls...)
}

// ScoreCalls returns the recorded ScoreBatch invocations.
func (t *Translator) ScoreCalls() []ScoreCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ScoreCall(nil), t.scoreCalls...)
}

// Lexicon maps a label to words that count as evidence for it.
var Lexicon = map[string][]string{
	"positive":    {"love", "loved", "good", "great", "like", "wonderful", "happy"},
	"negative":    {"scary", "bad", "hate", "awful", "terrible", "sad"},
	"ocean":       {"submarine", "diving", "sea", "fish", "waves"},
	"land":        {"car", "mountain", "road", "desert"},
	"fantasy":     {"wizard", "dragon", "spell", "wand"},
	"documentary": {"history", "footage", "interview"},
}

// LexiconScore is a toy log probability: -1 per candidate word, +2 for each
// context word equal to the candidate or listed under it in Lexicon.
func LexiconScore(context, candidate string) float64 {
	cand := strings.ToLower(strings.TrimSpace(candidate))
	score := -float64(len(strings.Fields(cand)))
	evidence := make(map[string]bool)
	for _, w := range Lexicon[cand] {
		evidence[w] = true
	}
	for _, w := range words(context) {
		if w == cand || evidence[w] {
			score += 2
		}
	}
	return score
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Script returns a responder that answers with the reply of the longest key
// contained in the prompt, or fallback when none matches.
func Script(replies map[string]string, fallback string) func(prompt, prefix string) string {
	keys := make([]string, 0, len(replies))
	for k := range replies {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return func(prompt, _ string) string {
		for _, k := range keys {
			if strings.Contains(prompt, k) {
				return replies[k]
			}
		}
		return fallback
	}
}
