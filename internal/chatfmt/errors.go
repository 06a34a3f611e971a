package chatfmt

import "errors"

// InvalidRoleError reports a role label outside system, user and assistant.
type InvalidRoleError struct{ Label string }

func (e InvalidRoleError) Error() string { return "invalid chat role: " + e.Label }

// Reasons a chat prompt is structurally malformed.
const (
	ReasonMissingAssistant  = "chat prompt must end with 'Assistant:'"
	ReasonAssistantNotBlank = "final assistant message must be blank"
)

// MalformedPromptError reports a chat prompt that does not end with an empty
// assistant turn.
type MalformedPromptError struct{ Reason string }

func (e MalformedPromptError) Error() string { return e.Reason }

// IsInvalidRole reports whether err is (or wraps) an InvalidRoleError.
func IsInvalidRole(err error) bool {
	var e InvalidRoleError
	return errors.As(err, &e)
}

// IsMalformed reports whether err is (or wraps) a MalformedPromptError.
func IsMalformed(err error) bool {
	var e MalformedPromptError
	return errors.As(err, &e)
}
