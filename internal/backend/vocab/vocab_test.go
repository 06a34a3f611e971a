package vocab

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tokenizer.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

const unigram = `{"added_tokens":[{"id":0,"content":"<pad>","special":true},{"id":1,"content":"</s>","special":true},{"id":2,"content":"<unk>","special":true}],
	"model":{"type":"Unigram","vocab":[["<pad>",0],["</s>",0],["<unk>",0],["▁Hello",-8.5],["▁world",-9.1],["▁Hol",-10],["a",-3],["▁",-2],["o",-3]]}}`

func TestLoadUnigram(t *testing.T) {
	v, err := Load(writeFile(t, unigram))
	require.NoError(t, err)
	assert.Equal(t, 3, v.IDs["▁Hello"])
	assert.Equal(t, 4, v.IDs["▁world"])
	assert.True(t, v.Specials["</s>"])
	assert.False(t, v.Specials["▁world"])
}

func TestLoadBPE(t *testing.T) {
	v, err := Load(writeFile(t, `{"model":{"type":"BPE","vocab":{"Hello":15496,"Ġworld":995}},"added_tokens":[{"id":50256,"content":"<|endoftext|>","special":true}]}`))
	require.NoError(t, err)
	id, ok := v.TokenToID("Ġworld")
	assert.True(t, ok)
	assert.Equal(t, 995, id)
	assert.Equal(t, 50256, v.IDs["<|endoftext|>"])
}

func TestLoadErrors(t *testing.T) {
	for _, body := range []string{
		`{"model":{"type":"BPE","vocab":{}}}`,
		`{"model":{"type":"BPE","vocab":"x"}}`,
		`{"model":`,
	} {
		_, err := Load(writeFile(t, body))
		assert.Error(t, err, body)
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestTokenizerGreedy(t *testing.T) {
	v, err := Load(writeFile(t, unigram))
	require.NoError(t, err)
	tok := NewTokenizer(v)
	ctx := context.Background()

	enc, err := tok.Encode(ctx, "Hello  world", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"▁Hello", "▁world", "</s>"}, enc.Tokens)
	assert.Equal(t, []int{3, 4, 1}, enc.IDs)

	enc, err = tok.Encode(ctx, "Hola", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"▁Hol", "a"}, enc.Tokens)

	enc, err = tok.Encode(ctx, "Hoz", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"▁", "<unk>", "o", "<unk>"}, enc.Tokens)

	text, err := tok.Decode(ctx, []int{3, 4, 1}, true)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
	text, err = tok.Decode(ctx, []int{3, 1}, false)
	require.NoError(t, err)
	assert.Equal(t, "Hello</s>", text)
	_, err = tok.Decode(ctx, []int{42}, true)
	assert.Error(t, err)

	assert.Equal(t, "Hello world", tok.Text([]string{"▁Hello", "▁world", "</s>"}))

	enc, err = tok.Encode(ctx, "   ", false)
	require.NoError(t, err)
	assert.Empty(t, enc.Tokens)
}
