package chatfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ImplicitSystem(t *testing.T) {
	msgs, err := Parse(`
             A helpful assistant

             User: What time is it?

             Assistant:
             `)
	require.NoError(t, err)
	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: "A helpful assistant"},
		{Role: RoleUser, Content: "What time is it?"},
	}, msgs)
}

func TestParse_LabelledStart(t *testing.T) {
	msgs, err := Parse("User: What time is it?\n\n              Assistant:")
	require.NoError(t, err)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "What time is it?"}}, msgs)
}

func TestParse_CaseInsensitiveLabels(t *testing.T) {
	msgs, err := Parse("SYSTEM: be brief\nuser: hi\nassistant: hello\nUSER: bye\nASSISTANT:")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, []Role{RoleSystem, RoleUser, RoleAssistant, RoleUser},
		[]Role{msgs[0].Role, msgs[1].Role, msgs[2].Role, msgs[3].Role})
	assert.Equal(t, "hello", msgs[2].Content)
}

func TestParse_CollapsesBlankRuns(t *testing.T) {
	msgs, err := Parse(`
             A helpful assistant

             User: First para

             Second para



             Third para

             Assistant:
             `)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "First para\n\nSecond para\n\nThird para", msgs[1].Content)
}

func TestParse_KeepsInlineColons(t *testing.T) {
	msgs, err := Parse("System: Respond as a helpful assistant. It is 5:00pm.\n\nUser: What time is it?\n\nAssistant:")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Respond as a helpful assistant. It is 5:00pm.", msgs[0].Content)
}

func TestParse_EmptyTurnShiftsLabels(t *testing.T) {
	// the empty user turn is dropped, so "Assistant" becomes its content
	_, err := Parse("User:\n\nAssistant:")
	var me MalformedPromptError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, ReasonMissingAssistant, me.Reason)

	msgs, err := Parse("User:\n\nAssistant:\n\nUser: hi\n\nAssistant:")
	require.NoError(t, err)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "Assistant"},
		{Role: RoleUser, Content: "hi"},
	}, msgs)
}

func TestParse_LeadingAssistantSlot(t *testing.T) {
	// "Assistant:" then "User: hello" pairs "User" as content and "hello" as a role
	_, err := Parse("Assistant:\n\nUser: hello")
	var re InvalidRoleError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "hello", re.Label)
}

func TestParse_MissingAssistant(t *testing.T) {
	for _, in := range []string{
		"User: What time is it?",
		"",
		"just some text",
	} {
		_, err := Parse(in)
		var me MalformedPromptError
		require.ErrorAs(t, err, &me, in)
		assert.Equal(t, ReasonMissingAssistant, me.Reason)
		assert.True(t, IsMalformed(err))
		assert.False(t, IsInvalidRole(err))
	}
}

func TestParse_AssistantNotBlank(t *testing.T) {
	_, err := Parse(`
             A helpful assistant

             User: What time is it?

             Assistant: The time is
             `)
	var me MalformedPromptError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, ReasonAssistantNotBlank, me.Reason)
	assert.Equal(t, "final assistant message must be blank", err.Error())
}

func TestParse_InvalidRole(t *testing.T) {
	_, err := Parse(`
             A helpful assistant

             User: What time is it?

             InvalidRole: Nothing

             Assistant:
             `)
	var re InvalidRoleError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "invalidrole", re.Label)
	assert.Equal(t, "invalid chat role: invalidrole", err.Error())
}

func TestParse_RoleErrorBeforeStructure(t *testing.T) {
	// no trailing assistant slot either; the unknown role wins
	_, err := Parse("Narrator: once upon a time")
	assert.True(t, IsInvalidRole(err))
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{
		"system":     RoleSystem,
		"User":       RoleUser,
		" ASSISTANT": RoleAssistant,
	} {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseRole("tool")
	assert.Equal(t, InvalidRoleError{Label: "tool"}, err)
}
