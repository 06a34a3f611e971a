package lm

import (
	"context"
	"fmt"
	"strings"

	"lmapi/internal/chatfmt"
	"lmapi/internal/generate"
	"lmapi/internal/postproc"
)

// Sampling settings per capability.
const (
	completeInstruction = "Write a sentence"
	completeTemperature = 0.7
	completeTopK        = 40

	chatTemperature       = 0.3
	chatTopK              = 40
	chatRepetitionPenalty = 1.3
)

// Complete continues prompt and returns only the continuation.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := generate.NewRequest(completeInstruction)
	req.MaxTokens = c.maxTokens()
	req.Temperature = completeTemperature
	req.TopK = completeTopK
	req.Prefix = prompt
	out, err := c.generate(ctx, "complete", req)
	if err != nil {
		return "", err
	}
	return postproc.TrimEcho(first(out), prompt), nil
}

// Do follows one instruction greedily. One-word answers are normalized to a
// capitalized sentence.
func (c *Client) Do(ctx context.Context, prompt string) (string, error) {
	out, err := c.DoBatch(ctx, []string{prompt})
	if err != nil {
		return "", err
	}
	return first(out), nil
}

// DoBatch is Do over several instructions in one backend call.
func (c *Client) DoBatch(ctx context.Context, prompts []string) ([]string, error) {
	req := generate.NewRequest(prompts...)
	req.MaxTokens = c.maxTokens()
	req.TopK = 1
	out, err := c.generate(ctx, "do", req)
	if err != nil {
		return nil, err
	}
	return postproc.NormalizeAll(out), nil
}

// DoChoice answers prompt with the most likely of choices, verbatim.
func (c *Client) DoChoice(ctx context.Context, prompt string, choices []string) (string, error) {
	out, err := c.DoBatchChoices(ctx, []string{prompt}, choices)
	if err != nil {
		return "", err
	}
	return first(out), nil
}

// DoBatchChoices is DoChoice over several instructions. Without choices it
// is DoBatch.
func (c *Client) DoBatchChoices(ctx context.Context, prompts, choices []string) ([]string, error) {
	if len(choices) == 0 {
		return c.DoBatch(ctx, prompts)
	}
	ranked, err := c.rank(ctx, "do_choice", prompts, choices)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r[0]
	}
	return out, nil
}

// Chat returns the next assistant message for a conversation written in the
// plain-text chat grammar. The prompt must end with an empty "Assistant:" turn.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	msgs, err := chatfmt.Parse(prompt)
	if err != nil {
		return "", err
	}
	req := generate.NewRequest(chatfmt.RenderPrompt(Window(msgs)))
	req.MaxTokens = c.maxTokens()
	req.Temperature = chatTemperature
	req.TopK = chatTopK
	req.RepetitionPenalty = chatRepetitionPenalty
	req.Prefix = postproc.AssistantLabel
	req.Suppress = Suppressions(msgs)
	out, err := c.generate(ctx, "chat", req)
	if err != nil {
		return "", err
	}
	return postproc.CleanChatReply(first(out)), nil
}

// ChatMessages runs Chat over structured messages.
func (c *Client) ChatMessages(ctx context.Context, msgs []chatfmt.Message) (string, error) {
	return c.Chat(ctx, chatfmt.Render(msgs))
}

// Window keeps every system message, then the most recent assistant message
// and the most recent user message.
func Window(msgs []chatfmt.Message) []chatfmt.Message {
	var out []chatfmt.Message
	var lastAssistant, lastUser *chatfmt.Message
	for i := range msgs {
		switch msgs[i].Role {
		case chatfmt.RoleSystem:
			out = append(out, msgs[i])
		case chatfmt.RoleAssistant:
			lastAssistant = &msgs[i]
		case chatfmt.RoleUser:
			lastUser = &msgs[i]
		}
	}
	if lastAssistant != nil {
		out = append(out, *lastAssistant)
	}
	if lastUser != nil {
		out = append(out, *lastUser)
	}
	return out
}

// Suppressions lists the sequences a chat reply must not contain: the
// opening of every earlier user and assistant turn behind an assistant
// label, then every user message verbatim.
func Suppressions(msgs []chatfmt.Message) []string {
	var out, users []string
	for _, m := range msgs {
		if m.Role == chatfmt.RoleSystem {
			continue
		}
		word, _, _ := strings.Cut(m.Content, " ")
		out = append(out, postproc.AssistantLabel+" "+word)
		if m.Role == chatfmt.RoleUser {
			users = append(users, m.Content)
		}
	}
	return append(out, users...)
}

// Classify returns whichever of label1 and label2 better describes doc.
func (c *Client) Classify(ctx context.Context, doc, label1, label2 string) (string, error) {
	prompt := fmt.Sprintf("Classify as %s or %s: %s\n\nClassification:", label1, label2, doc)
	ranked, err := c.rank(ctx, "classify", []string{prompt}, []string{label1, label2})
	if err != nil {
		return "", err
	}
	return ranked[0][0], nil
}

// ExtractAnswer answers question from passage with the default generation
// length. When the answer occurs in passage, ignoring case, the span is
// returned as written in passage.
func (c *Client) ExtractAnswer(ctx context.Context, question, passage string) (string, error) {
	req := generate.NewRequest(passage + "\n\n" + question)
	out, err := c.generate(ctx, "extract_answer", req)
	if err != nil {
		return "", err
	}
	answer := first(out)
	if span, ok := findSpan(passage, answer); ok {
		return span, nil
	}
	return answer, nil
}

// findSpan locates answer in text case-insensitively. Folding must keep byte
// offsets, so texts whose lowercase form changes length are not searched.
func findSpan(text, answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", false
	}
	lt, la := strings.ToLower(text), strings.ToLower(answer)
	if len(lt) != len(text) || len(la) != len(answer) {
		return "", false
	}
	i := strings.Index(lt, la)
	if i < 0 {
		return "", false
	}
	return text[i : i+len(answer)], true
}

func first(out []string) string {
	if len(out) == 0 {
		return ""
	}
	return out[0]
}
