package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"lmapi/internal/backend/backendtest"
	"lmapi/internal/manager"
	"lmapi/pkg/types"
)

func requestStatus(t *testing.T, err error) int {
	t.Helper()
	var re *openai.RequestError
	if !errors.As(err, &re) {
		t.Fatalf("expected *openai.RequestError, got %T: %v", err, err)
	}
	return re.HTTPStatusCode
}

func TestE2E_Completions(t *testing.T) {
	s := newStack(t, true, nil)
	resp, err := s.client.CreateCompletion(context.Background(), openai.CompletionRequest{
		Model:  "flan",
		Prompt: "Pick the sport from the list: baseball, texas, chemistry",
	})
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if resp.Object != "text_completion" || resp.Model != "flan" || resp.ID == "" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Text != "Baseball." {
		t.Fatalf("unexpected choices: %+v", resp.Choices)
	}
	if resp.Usage == nil || resp.Usage.PromptTokens != 9 || resp.Usage.CompletionTokens != 1 || resp.Usage.TotalTokens != 10 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
}

func TestE2E_CompletionsStripQuotes(t *testing.T) {
	s := newStack(t, true, nil)
	resp, err := s.client.CreateCompletion(context.Background(), openai.CompletionRequest{Model: "flan", Prompt: "Say hello"})
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if got := resp.Choices[0].Text; got != "Hello there" {
		t.Fatalf("text=%q", got)
	}
}

func TestE2E_ChatCompletions(t *testing.T) {
	s := newStack(t, true, nil)
	resp, err := s.client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model: "flan",
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Answer briefly."},
			{Role: openai.ChatMessageRoleUser, Content: "What is the capital of France?"},
		},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Object != "chat.completion" || len(resp.Choices) != 1 {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	msg := resp.Choices[0].Message
	if msg.Role != openai.ChatMessageRoleAssistant || msg.Content != "Paris" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if resp.Usage.PromptTokens != 8 || resp.Usage.CompletionTokens != 1 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
}

func TestE2E_ChatValidation(t *testing.T) {
	s := newStack(t, true, nil)
	_, err := s.client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model:    "flan",
		Messages: []openai.ChatCompletionMessage{{Role: "robot", Content: "beep"}},
	})
	if got := requestStatus(t, err); got != http.StatusBadRequest {
		t.Fatalf("invalid role status=%d", got)
	}

	many := make([]openai.ChatCompletionMessage, 6)
	for i := range many {
		many[i] = openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "hi"}
	}
	_, err = s.client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{Model: "flan", Messages: many})
	if got := requestStatus(t, err); got != http.StatusBadRequest {
		t.Fatalf("too many messages status=%d", got)
	}
}

func TestE2E_ModelsStatusReadiness(t *testing.T) {
	s := newStack(t, true, nil)

	resp, body := httpGet(t, s.srv.URL+"/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/models status=%d", resp.StatusCode)
	}
	var models types.ModelsResponse
	if err := json.Unmarshal(body, &models); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(models.Models) != 1 || models.Models[0].Name != "flan" || models.Current != "flan" {
		t.Fatalf("unexpected models: %+v", models)
	}

	resp, body = httpGet(t, s.srv.URL+"/status")
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.StatusCode != http.StatusOK || st.State != string(manager.StateReady) || st.LoadsTotal != 1 {
		t.Fatalf("unexpected status %d: %+v", resp.StatusCode, st)
	}

	resp, _ = httpGet(t, s.srv.URL+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz status=%d", resp.StatusCode)
	}
	resp, body = httpGet(t, s.srv.URL+"/health")
	var health types.HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.StatusCode != http.StatusOK || health.Message != "Hello World" {
		t.Fatalf("/health %d %q", resp.StatusCode, body)
	}
}

func TestE2E_SidecarDown(t *testing.T) {
	s := newStack(t, true, nil, func(sc *backendtest.Sidecar) { sc.FailNext.Store(1000) })

	resp, _ := httpGet(t, s.srv.URL+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz status=%d", resp.StatusCode)
	}
	_, err := s.client.CreateCompletion(context.Background(), openai.CompletionRequest{Model: "flan", Prompt: "Pick the sport"})
	if got := requestStatus(t, err); got != http.StatusServiceUnavailable {
		t.Fatalf("completion status=%d", got)
	}
	_, body := httpGet(t, s.srv.URL+"/status")
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if st.State != string(manager.StateError) || st.LastError == "" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestE2E_LazyMode(t *testing.T) {
	s := newStack(t, false, nil)
	resp, _ := httpGet(t, s.srv.URL+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lazy /readyz status=%d", resp.StatusCode)
	}
	for i := 0; i < 2; i++ {
		out, err := s.client.CreateCompletion(context.Background(), openai.CompletionRequest{Model: "flan", Prompt: "Pick the sport"})
		if err != nil {
			t.Fatalf("completion %d: %v", i, err)
		}
		if out.Choices[0].Text != "Baseball." {
			t.Fatalf("text=%q", out.Choices[0].Text)
		}
	}
	if st := s.mgr.Status(); !st.Lazy || st.LoadsTotal < 2 {
		t.Fatalf("expected a load per call, got %+v", st)
	}
}

func TestE2E_PromptTokenBudget(t *testing.T) {
	s := newStack(t, true, func(c *manager.ManagerConfig) { c.MaxPromptTokens = 3 })
	resp, _ := httpPostJSON(t, s.srv.URL+"/completions", []byte(`{"prompt":"Pick the sport from the list: baseball, texas, chemistry"}`))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}
