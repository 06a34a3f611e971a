package vocab

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"lmapi/internal/backend"
)

// Space is the SentencePiece word-boundary marker.
const Space = "▁"

var eosCandidates = []string{"</s>", "<|endoftext|>", "<eos>"}

// Tokenizer splits text by greedy longest match against a vocabulary, with
// words marked by Space. It approximates SentencePiece segmentation closely
// enough for prompt construction; ids always round-trip through Decode.
type Tokenizer struct {
	v      *Vocab
	pieces map[int]string
	maxLen int
	eos    string
	unk    string
}

// NewTokenizer indexes v for encoding and decoding.
func NewTokenizer(v *Vocab) *Tokenizer {
	t := &Tokenizer{v: v, pieces: make(map[int]string, len(v.IDs))}
	for p, id := range v.IDs {
		t.pieces[id] = p
		if len(p) > t.maxLen {
			t.maxLen = len(p)
		}
	}
	for _, c := range eosCandidates {
		if _, ok := v.IDs[c]; ok {
			t.eos = c
			break
		}
	}
	if _, ok := v.IDs["<unk>"]; ok {
		t.unk = "<unk>"
	}
	return t
}

func (t *Tokenizer) Encode(_ context.Context, text string, addSpecialTokens bool) (backend.Encoding, error) {
	var enc backend.Encoding
	if words := strings.Fields(text); len(words) > 0 {
		norm := Space + strings.Join(words, Space)
		for i := 0; i < len(norm); {
			piece := t.longest(norm[i:])
			if piece == "" {
				_, size := utf8.DecodeRuneInString(norm[i:])
				if t.unk == "" {
					return backend.Encoding{}, fmt.Errorf("no vocabulary piece for %q", norm[i:i+size])
				}
				piece = t.unk
				i += size
			} else {
				i += len(piece)
			}
			enc.Tokens = append(enc.Tokens, piece)
			enc.IDs = append(enc.IDs, t.v.IDs[piece])
		}
	}
	if addSpecialTokens && t.eos != "" {
		enc.Tokens = append(enc.Tokens, t.eos)
		enc.IDs = append(enc.IDs, t.v.IDs[t.eos])
	}
	return enc, nil
}

func (t *Tokenizer) longest(s string) string {
	n := t.maxLen
	if n > len(s) {
		n = len(s)
	}
	for ; n > 0; n-- {
		if !utf8.ValidString(s[:n]) {
			continue
		}
		if _, ok := t.v.IDs[s[:n]]; ok {
			return s[:n]
		}
	}
	return ""
}

func (t *Tokenizer) Decode(_ context.Context, ids []int, skipSpecialTokens bool) (string, error) {
	var b strings.Builder
	for _, id := range ids {
		p, ok := t.pieces[id]
		if !ok {
			return "", fmt.Errorf("token id %d not in vocabulary", id)
		}
		if skipSpecialTokens && t.v.Specials[p] {
			continue
		}
		b.WriteString(strings.ReplaceAll(p, Space, " "))
	}
	return strings.TrimPrefix(b.String(), " "), nil
}

func (t *Tokenizer) TokenToID(token string) (int, bool) { return t.v.TokenToID(token) }

// Text joins pieces back to text, dropping special pieces.
func (t *Tokenizer) Text(pieces []string) string {
	var b strings.Builder
	for _, p := range pieces {
		if t.v.Specials[p] {
			continue
		}
		b.WriteString(strings.ReplaceAll(p, Space, " "))
	}
	return strings.TrimPrefix(b.String(), " ")
}
