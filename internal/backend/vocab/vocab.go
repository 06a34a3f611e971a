// Package vocab reads tokenizer.json vocabularies and provides a greedy
// longest-match tokenizer over them for runtimes without their own.
package vocab

import (
	"bytes"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

type tokenizerFile struct {
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
	Model struct {
		Type  string          `json:"type"`
		Vocab json.RawMessage `json:"vocab"`
	} `json:"model"`
}

// Vocab maps pieces to ids. Specials holds the added tokens flagged special.
type Vocab struct {
	IDs      map[string]int
	Specials map[string]bool
}

// Load reads the vocabulary of a Hugging Face tokenizer.json.
// Object vocabularies (BPE, WordPiece, WordLevel) map pieces to ids directly;
// list vocabularies (Unigram) hold [piece, score] pairs indexed by id.
// Added tokens override both.
func Load(path string) (*Vocab, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f tokenizerFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	vocab := make(map[string]int)
	raw := bytes.TrimSpace(f.Model.Vocab)
	switch {
	case len(raw) == 0 || string(raw) == "null":
	case raw[0] == '{':
		if err := json.Unmarshal(raw, &vocab); err != nil {
			return nil, fmt.Errorf("%s: vocab: %w", path, err)
		}
	case raw[0] == '[':
		var pairs [][]any
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return nil, fmt.Errorf("%s: vocab: %w", path, err)
		}
		for id, p := range pairs {
			if len(p) == 0 {
				continue
			}
			if piece, ok := p[0].(string); ok {
				vocab[piece] = id
			}
		}
	default:
		return nil, fmt.Errorf("%s: unsupported vocab layout", path)
	}
	specials := make(map[string]bool)
	for _, t := range f.AddedTokens {
		vocab[t.Content] = t.ID
		if t.Special {
			specials[t.Content] = true
		}
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("%s: empty vocabulary", path)
	}
	return &Vocab{IDs: vocab, Specials: specials}, nil
}

// TokenToID looks a piece up.
func (v *Vocab) TokenToID(token string) (int, bool) {
	id, ok := v.IDs[token]
	return id, ok
}
