package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmapi/internal/backend"
	"lmapi/internal/backend/backendtest"
	"lmapi/pkg/types"
)

func newBuilder(t *testing.T, tr *backendtest.Translator, info types.ModelInfo, budget int) *Builder {
	t.Helper()
	a, err := backendtest.NewLoader(tr).Load(context.Background(), info)
	require.NoError(t, err)
	return NewBuilder(a, budget)
}

func TestNewRequestDefaults(t *testing.T) {
	r := NewRequest("a", "b")
	assert.Equal(t, []string{"a", "b"}, r.Instructions)
	assert.Equal(t, 200, r.MaxTokens)
	assert.Equal(t, 0.1, r.Temperature)
	assert.Equal(t, 1, r.TopK)
	assert.Equal(t, 1.3, r.RepetitionPenalty)
	assert.NoError(t, r.Validate())
}

func TestValidate(t *testing.T) {
	bad := []func(*Request){
		func(r *Request) { r.MaxTokens = 0 },
		func(r *Request) { r.Temperature = -0.1 },
		func(r *Request) { r.TopK = -1 },
		func(r *Request) { r.RepetitionPenalty = 0.9 },
	}
	for i, mutate := range bad {
		r := NewRequest("x")
		mutate(&r)
		assert.Error(t, r.Validate(), "case %d", i)
	}
}

func TestGenerateShapesBackendCall(t *testing.T) {
	tr := &backendtest.Translator{Respond: func(prompt, prefix string) string { return "Paris" }}
	info := backendtest.Model("m")
	info.PromptFormat = "Instruction: {instruction} Response:"
	b := newBuilder(t, tr, info, 0)

	req := NewRequest("What is the capital of France?", "Name a city")
	req.Temperature = 0.3
	req.TopK = 40
	req.MaxTokens = 17
	req.Prefix = "Answer:"
	req.Suppress = []string{"Assistant: Hi", "", "What time is it?"}

	out, err := b.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Answer: Paris", "Answer: Paris"}, out)

	calls := tr.Calls()
	require.Len(t, calls, 1, "one backend call per batch")
	c := calls[0]
	require.Len(t, c.Source, 2)
	assert.Equal(t, backendtest.Pieces("Instruction: What is the capital of France? Response:"), c.Source[0][:len(c.Source[0])-1])
	assert.Equal(t, backendtest.EOS, c.Source[0][len(c.Source[0])-1], "prompts carry special tokens")
	assert.Equal(t, [][]string{{"▁Answer:"}, {"▁Answer:"}}, c.TargetPrefix)
	assert.Equal(t, backend.SamplingParams{
		MaxDecodingLength: 17,
		Temperature:       0.3,
		TopK:              40,
		RepetitionPenalty: 1.3,
		BeamSize:          1,
		SuppressSequences: [][]string{
			{"▁Assistant:", "▁Hi"},
			{"▁What", "▁time", "▁is", "▁it?"},
		},
	}, c.Params)
}

func TestGenerateDefaultTemplateAndTrim(t *testing.T) {
	tr := &backendtest.Translator{Respond: func(prompt, _ string) string { return "echo " + prompt }}
	b := newBuilder(t, tr, types.ModelInfo{Name: "m"}, 0)
	out, err := b.Generate(context.Background(), NewRequest("  hello"))
	require.NoError(t, err)
	assert.Equal(t, []string{"echo hello"}, out)
	assert.Equal(t, "  hello", b.Prompt("  hello"))
}

func TestGenerateEmptyBatch(t *testing.T) {
	tr := &backendtest.Translator{}
	b := newBuilder(t, tr, backendtest.Model("m"), 0)
	out, err := b.Generate(context.Background(), NewRequest())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, tr.Calls())
}

func TestGenerateTokenBudget(t *testing.T) {
	tr := &backendtest.Translator{}
	b := newBuilder(t, tr, backendtest.Model("m"), 3)
	_, err := b.Generate(context.Background(), NewRequest("one two three four"))
	var tb TokenBudgetError
	require.ErrorAs(t, err, &tb)
	assert.Equal(t, TokenBudgetError{Tokens: 5, Limit: 3}, tb)
	assert.True(t, IsTokenBudget(err))
	assert.Empty(t, tr.Calls(), "budget is checked before the backend is called")
}

func TestGenerateBackendErrorNotRetried(t *testing.T) {
	cause := errors.New("device lost")
	tr := &backendtest.Translator{Err: cause}
	b := newBuilder(t, tr, backendtest.Model("m"), 0)
	_, err := b.Generate(context.Background(), NewRequest("hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, backend.IsInferenceError(err))
	assert.Len(t, tr.Calls(), 1)
}

func TestGenerateInvalidRequestSkipsBackend(t *testing.T) {
	tr := &backendtest.Translator{}
	b := newBuilder(t, tr, backendtest.Model("m"), 0)
	req := NewRequest("hi")
	req.TopK = -3
	_, err := b.Generate(context.Background(), req)
	require.Error(t, err)
	assert.False(t, backend.IsInferenceError(err))
	assert.Empty(t, tr.Calls())
}
