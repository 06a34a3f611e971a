package chatfmt

import "strings"

// Render writes msgs in the chat grammar followed by the empty assistant
// slot. Parse(Render(msgs)) returns msgs for trimmed, non-empty, label-free
// contents.
func Render(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Role.Label())
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}

// RenderPrompt builds the model-facing prompt for msgs. User turns are
// labelled as questions and a leading "System:" label is dropped, so a system
// message reads as a bare instruction.
func RenderPrompt(msgs []Message) string {
	parts := make([]string, 0, len(msgs)+1)
	for _, m := range msgs {
		parts = append(parts, m.Role.promptLabel()+": "+m.Content)
	}
	prompt := strings.Join(parts, "\n\n") + "\n\nAssistant:"
	if strings.HasPrefix(prompt, "System:") {
		prompt = strings.TrimSpace(prompt[len("System:"):])
	}
	return prompt
}
