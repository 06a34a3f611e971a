// Package backendtest provides deterministic in-memory backends for tests: a
// whitespace tokenizer, a scripted translator, a lexicon-driven scorer and an
// HTTP sidecar speaking the remote protocol.
package backendtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"lmapi/internal/backend"
)

// Special pieces and their ids.
const (
	Pad = "<pad>"
	EOS = "</s>"
	Unk = "<unk>"
)

// Space is the word-boundary marker carried by pieces.
const Space = "▁"

var specials = []string{Pad, EOS, Unk}

// Tokenizer splits on whitespace and marks every word with Space. Unknown
// pieces are added to the vocabulary on first use, so ids are stable for the
// lifetime of the value.
type Tokenizer struct {
	mu    sync.Mutex
	ids   map[string]int
	vocab []string
}

// NewTokenizer returns a tokenizer whose vocabulary already holds every word
// of corpus.
func NewTokenizer(corpus ...string) *Tokenizer {
	t := &Tokenizer{ids: make(map[string]int)}
	for _, s := range specials {
		t.add(s)
	}
	for _, c := range corpus {
		for _, w := range strings.Fields(c) {
			t.add(Space + w)
		}
	}
	return t
}

func (t *Tokenizer) add(piece string) int {
	if id, ok := t.ids[piece]; ok {
		return id
	}
	id := len(t.vocab)
	t.ids[piece] = id
	t.vocab = append(t.vocab, piece)
	return id
}

// Pieces tokenizes text without touching ids.
func Pieces(text string) []string {
	words := strings.Fields(text)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = Space + w
	}
	return out
}

// Text joins pieces back to text, dropping special pieces.
func Text(pieces []string) string {
	var b strings.Builder
	for _, p := range pieces {
		if isSpecial(p) {
			continue
		}
		b.WriteString(strings.ReplaceAll(p, Space, " "))
	}
	return strings.TrimPrefix(b.String(), " ")
}

func isSpecial(p string) bool {
	for _, s := range specials {
		if p == s {
			return true
		}
	}
	return false
}

func (t *Tokenizer) Encode(_ context.Context, text string, addSpecialTokens bool) (backend.Encoding, error) {
	pieces := Pieces(text)
	if addSpecialTokens {
		pieces = append(pieces, EOS)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]int, len(pieces))
	for i, p := range pieces {
		ids[i] = t.add(p)
	}
	return backend.Encoding{Tokens: pieces, IDs: ids}, nil
}

func (t *Tokenizer) Decode(_ context.Context, ids []int, skipSpecialTokens bool) (string, error) {
	t.mu.Lock()
	pieces := make([]string, 0, len(ids))
	for _, id := range ids {
		if id < 0 || id >= len(t.vocab) {
			t.mu.Unlock()
			return "", fmt.Errorf("token id %d out of range", id)
		}
		pieces = append(pieces, t.vocab[id])
	}
	t.mu.Unlock()
	if !skipSpecialTokens {
		return strings.TrimPrefix(strings.ReplaceAll(strings.Join(pieces, ""), Space, " "), " "), nil
	}
	return Text(pieces), nil
}

// TokenToID never fails: unseen pieces, such as scripted translator output,
// join the vocabulary.
func (t *Tokenizer) TokenToID(token string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.add(token), true
}

// Vocab returns the current piece to id mapping.
func (t *Tokenizer) Vocab() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.ids))
	for k, v := range t.ids {
		out[k] = v
	}
	return out
}

type addedToken struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Special bool   `json:"special"`
}

type tokenizerFile struct {
	AddedTokens []addedToken `json:"added_tokens"`
	Model       struct {
		Type  string         `json:"type"`
		Vocab map[string]int `json:"vocab"`
	} `json:"model"`
}

// WriteTokenizerJSON writes the current vocabulary to dir/tokenizer.json in
// the Hugging Face layout the remote backend reads.
func (t *Tokenizer) WriteTokenizerJSON(dir string) error {
	var f tokenizerFile
	f.Model.Type = "WordLevel"
	f.Model.Vocab = t.Vocab()
	for _, s := range specials {
		f.AddedTokens = append(f.AddedTokens, addedToken{ID: f.Model.Vocab[s], Content: s, Special: true})
	}
	sort.Slice(f.AddedTokens, func(i, j int) bool { return f.AddedTokens[i].ID < f.AddedTokens[j].ID })
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, backend.TokenizerFile), b, 0o644)
}
