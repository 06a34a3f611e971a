package lm

import (
	"context"
	"strings"

	"lmapi/internal/backend"
)

// Token is one tokenizer piece with its id. Text renders the word-boundary
// marker as a space.
type Token struct {
	Piece string `json:"piece"`
	Text  string `json:"text"`
	ID    int    `json:"id"`
}

const wordBoundary = "▁"

// ListTokens tokenizes prompt without special tokens.
func (c *Client) ListTokens(ctx context.Context, prompt string) ([]Token, error) {
	var out []Token
	err := c.withArtifacts(ctx, "list_tokens", 1, func(a backend.Artifacts) error {
		enc, err := a.Tokenizer.Encode(ctx, prompt, false)
		if err != nil {
			return backend.Wrap("encode", err)
		}
		out = make([]Token, len(enc.Tokens))
		for i, p := range enc.Tokens {
			out[i] = Token{Piece: p, Text: strings.ReplaceAll(p, wordBoundary, " ")}
			if i < len(enc.IDs) {
				out[i].ID = enc.IDs[i]
			}
		}
		return nil
	})
	return out, err
}

// CountTokens returns the number of tokens in prompt.
func (c *Client) CountTokens(ctx context.Context, prompt string) (int, error) {
	toks, err := c.ListTokens(ctx, prompt)
	return len(toks), err
}
