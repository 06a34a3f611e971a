package manager

import (
	"context"

	"lmapi/internal/chatfmt"
)

// Capability calls delegate to the bound client; see lm.Client.

func (m *Manager) ModelName() string { return m.client.ModelName() }

func (m *Manager) Complete(ctx context.Context, prompt string) (string, error) {
	return m.client.Complete(ctx, prompt)
}

func (m *Manager) Do(ctx context.Context, prompt string) (string, error) {
	return m.client.Do(ctx, prompt)
}

func (m *Manager) Chat(ctx context.Context, prompt string) (string, error) {
	return m.client.Chat(ctx, prompt)
}

func (m *Manager) ChatMessages(ctx context.Context, msgs []chatfmt.Message) (string, error) {
	return m.client.ChatMessages(ctx, msgs)
}

func (m *Manager) Classify(ctx context.Context, doc, label1, label2 string) (string, error) {
	return m.client.Classify(ctx, doc, label1, label2)
}

func (m *Manager) ExtractAnswer(ctx context.Context, question, passage string) (string, error) {
	return m.client.ExtractAnswer(ctx, question, passage)
}

func (m *Manager) CountTokens(ctx context.Context, text string) (int, error) {
	return m.client.CountTokens(ctx, text)
}
