package chatfmt

import "strings"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps a label such as "User" or "ASSISTANT" to a Role.
func ParseRole(label string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(label))); r {
	case RoleSystem, RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", InvalidRoleError{Label: string(r)}
	}
}

// Label is the capitalized form used in the plain-text grammar.
func (r Role) Label() string {
	switch r {
	case RoleSystem:
		return "System"
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	}
	return string(r)
}

// promptLabel is the label the model sees for r; user turns are framed as
// questions.
func (r Role) promptLabel() string {
	if r == RoleUser {
		return "Question"
	}
	return r.Label()
}

func (r Role) String() string { return string(r) }

// Message is one role-tagged chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
