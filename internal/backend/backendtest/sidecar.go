package backendtest

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"lmapi/internal/backend/remote"
)

// Sidecar serves the remote backend protocol from a fixture tokenizer and
// translator.
type Sidecar struct {
	Tokenizer  *Tokenizer
	Translator *Translator
	// NoScoring answers score_batch with 501, like a generation-only runtime.
	NoScoring bool
	// FailNext makes the next n requests fail with 503.
	FailNext atomic.Int32

	requests atomic.Int64
}

// NewSidecar returns a sidecar over tok and tr.
func NewSidecar(tok *Tokenizer, tr *Translator) *Sidecar {
	return &Sidecar{Tokenizer: tok, Translator: tr}
}

// Requests counts the requests served, failed ones included.
func (s *Sidecar) Requests() int64 { return s.requests.Load() }

// Handler returns the HTTP handler for the sidecar.
func (s *Sidecar) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.requests.Add(1)
			if n := s.FailNext.Load(); n > 0 {
				s.FailNext.Add(-1)
				writeError(w, http.StatusServiceUnavailable, "warming up")
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get(remote.PathHealth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	r.Post(remote.PathTokenize, func(w http.ResponseWriter, r *http.Request) {
		var req remote.TokenizeRequest
		if !decode(w, r, &req) {
			return
		}
		enc, err := s.Tokenizer.Encode(r.Context(), req.Text, req.AddSpecialTokens)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, remote.TokenizeResponse{Tokens: enc.Tokens, IDs: enc.IDs})
	})
	r.Post(remote.PathDetokenize, func(w http.ResponseWriter, r *http.Request) {
		var req remote.DetokenizeRequest
		if !decode(w, r, &req) {
			return
		}
		text, err := s.Tokenizer.Decode(r.Context(), req.IDs, req.SkipSpecialTokens)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, remote.DetokenizeResponse{Text: text})
	})
	r.Post(remote.PathTranslate, func(w http.ResponseWriter, r *http.Request) {
		var req remote.TranslateRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := s.Translator.TranslateBatch(r.Context(), req.Source, req.TargetPrefix, req.Params)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, remote.TranslateResponse{Results: res})
	})
	r.Post(remote.PathScore, func(w http.ResponseWriter, r *http.Request) {
		if s.NoScoring {
			writeError(w, http.StatusNotImplemented, "scoring not supported")
			return
		}
		var req remote.ScoreRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := s.Translator.ScoreBatch(r.Context(), req.Source, req.Target)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, remote.ScoreResponse{Results: res})
	})
	return r
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(remote.ErrorBody{Error: msg})
}
