package remote

import "lmapi/internal/backend"

// Sidecar endpoints.
const (
	PathHealth     = "/health"
	PathTokenize   = "/tokenize"
	PathDetokenize = "/detokenize"
	PathTranslate  = "/translate_batch"
	PathScore      = "/score_batch"
)

// HeaderModel carries the model name on every request.
const HeaderModel = "X-Model"

type TokenizeRequest struct {
	Text             string `json:"text"`
	AddSpecialTokens bool   `json:"add_special_tokens"`
}

type TokenizeResponse struct {
	Tokens []string `json:"tokens"`
	IDs    []int    `json:"ids"`
}

type DetokenizeRequest struct {
	IDs               []int `json:"ids"`
	SkipSpecialTokens bool  `json:"skip_special_tokens"`
}

type DetokenizeResponse struct {
	Text string `json:"text"`
}

type TranslateRequest struct {
	Source       [][]string             `json:"source"`
	TargetPrefix [][]string             `json:"target_prefix"`
	Params       backend.SamplingParams `json:"params"`
}

type TranslateResponse struct {
	Results []backend.TranslationResult `json:"results"`
}

// ScoreRequest omits Target for whole-sequence scoring.
type ScoreRequest struct {
	Source [][]string `json:"source"`
	Target [][]string `json:"target,omitempty"`
}

type ScoreResponse struct {
	Results []backend.ScoringResult `json:"results"`
}

// ErrorBody is returned by the sidecar with any non-2xx status.
type ErrorBody struct {
	Error string `json:"error"`
}
