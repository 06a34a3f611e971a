// Package chatfmt converts between the plain-text chat grammar and ordered
// role-tagged messages.
//
// A chat prompt is a sequence of "<Role>: <content>" turns, each label at the
// start of a line, ending with an empty "Assistant:" slot for the reply:
//
//	Assistant is helpful and harmless
//
//	User: What is the capital of Germany?
//
//	Assistant:
//
// Leading text without a label is a system message.
package chatfmt

import (
	"regexp"
	"strings"
)

var (
	leadingLabel = regexp.MustCompile(`^\s*\w+:`)
	lineLabel    = regexp.MustCompile(`[\r\n]\s*(\w+):`)
	blankRuns    = regexp.MustCompile(`\s*\n\n\s*`)
)

// Parse splits a chat prompt into messages. The trailing empty assistant slot
// is validated and dropped, so the result holds only the conversation so far.
// Role errors are reported before structural ones.
//
// Labels and contents are read as one alternating list with blank entries
// removed, so an empty turn shifts the next label into content position.
func Parse(prompt string) ([]Message, error) {
	if !leadingLabel.MatchString(prompt) {
		prompt = "System: " + prompt
	}
	prompt = "\n\n" + prompt

	chunks := splitChunks(prompt)
	msgs := make([]Message, 0, (len(chunks)+1)/2)
	for i := 0; i < len(chunks); i += 2 {
		role, err := ParseRole(chunks[i])
		if err != nil {
			return nil, err
		}
		var content string
		if i+1 < len(chunks) {
			content = blankRuns.ReplaceAllString(chunks[i+1], "\n\n")
		}
		msgs = append(msgs, Message{Role: role, Content: content})
	}

	if len(msgs) == 0 || msgs[len(msgs)-1].Role != RoleAssistant {
		return nil, MalformedPromptError{Reason: ReasonMissingAssistant}
	}
	if msgs[len(msgs)-1].Content != "" {
		return nil, MalformedPromptError{Reason: ReasonAssistantNotBlank}
	}
	return msgs[:len(msgs)-1], nil
}

// splitChunks cuts prompt at every line label, keeping the labels, and
// returns the trimmed pieces that are not blank.
func splitChunks(prompt string) []string {
	var chunks []string
	keep := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			chunks = append(chunks, s)
		}
	}
	prev := 0
	for _, loc := range lineLabel.FindAllStringSubmatchIndex(prompt, -1) {
		keep(prompt[prev:loc[0]])
		keep(prompt[loc[2]:loc[3]])
		prev = loc[1]
	}
	keep(prompt[prev:])
	return chunks
}
