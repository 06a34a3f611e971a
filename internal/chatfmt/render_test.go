package chatfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	got := Render([]Message{
		{Role: RoleSystem, Content: "Be terse."},
		{Role: RoleUser, Content: "Hi"},
	})
	assert.Equal(t, "System: Be terse.\n\nUser: Hi\n\nAssistant:", got)
	assert.Equal(t, "Assistant:", Render(nil))
}

func TestRenderParseRoundTrip(t *testing.T) {
	cases := [][]Message{
		{{Role: RoleUser, Content: "What is the capital of Germany?"}},
		{
			{Role: RoleSystem, Content: "Assistant is helpful and harmless"},
			{Role: RoleUser, Content: "What is the capital of Germany?"},
			{Role: RoleAssistant, Content: "The capital of Germany is Berlin."},
			{Role: RoleUser, Content: "How many people live there?"},
		},
		{
			{Role: RoleSystem, Content: "First para\n\nSecond para"},
			{Role: RoleAssistant, Content: "Hello, how can I help?"},
			{Role: RoleUser, Content: "Tell me the time: now."},
		},
	}
	for _, msgs := range cases {
		back, err := Parse(Render(msgs))
		require.NoError(t, err)
		assert.Equal(t, msgs, back)
	}
}

func TestRenderPrompt(t *testing.T) {
	got := RenderPrompt([]Message{
		{Role: RoleSystem, Content: "Respond as a helpful assistant."},
		{Role: RoleAssistant, Content: "Hi there."},
		{Role: RoleUser, Content: "What time is it?"},
	})
	assert.Equal(t, "Respond as a helpful assistant.\n\nAssistant: Hi there.\n\nQuestion: What time is it?\n\nAssistant:", got)

	got = RenderPrompt([]Message{{Role: RoleUser, Content: "Hello"}})
	assert.Equal(t, "Question: Hello\n\nAssistant:", got)
}
