package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"

	"lmapi/internal/chatfmt"
	"lmapi/internal/postproc"
	"lmapi/pkg/types"
)

// Chat requests carry between minChatMessages and maxChatMessages turns.
const (
	minChatMessages = 1
	maxChatMessages = 5
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.ModelInfo
	Status() types.StatusResponse
	Ready() bool
	ModelName() string
	Do(ctx context.Context, prompt string) (string, error)
	ChatMessages(ctx context.Context, msgs []chatfmt.Message) (string, error)
	CountTokens(ctx context.Context, text string) (int, error)
}

type badRequestError struct{ msg string }

func (e badRequestError) Error() string   { return e.msg }
func (e badRequestError) StatusCode() int { return http.StatusBadRequest }

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	h := &handlers{svc: svc}

	r.Get("/health", h.health)
	r.Get("/models", h.models)
	r.Get("/status", h.status)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit, inflight)
		r.Post("/completions", h.completions)
		r.Post("/chat/completions", h.chatCompletions)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

type handlers struct {
	svc Service
}

// health godoc
// @Summary      Liveness greeting
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Router       /health [get]
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, types.HealthResponse{Message: "Hello World"})
}

// models godoc
// @Summary      List models found in the artifact directory
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, types.ModelsResponse{Models: h.svc.ListModels(), Current: h.svc.ModelName()})
}

// status godoc
// @Summary      Model lifecycle status
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Status())
}

// decodeJSON checks the content type and decodes a size-limited body into v.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) (int, bool) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return http.StatusUnsupportedMediaType, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// oversized bodies also land here; report 400 without size details
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return http.StatusBadRequest, false
	}
	return 0, true
}

// completions godoc
// @Summary      Follow an instruction
// @Description  Runs the prompt through "do" and returns an OpenAI-style text completion.
// @Tags         completions
// @Accept       json
// @Produce      json
// @Param        request  body      types.CompletionRequest  true  "Prompt"
// @Success      200      {object}  openai.CompletionResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      413      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Router       /completions [post]
func (h *handlers) completions(w http.ResponseWriter, r *http.Request) {
	rl := startRequestLog(r, "completions")
	var req types.CompletionRequest
	if status, ok := decodeJSON(w, r, &req); !ok {
		rl.end(status, nil)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		h.fail(w, r, rl, badRequestError{msg: "prompt is required"})
		return
	}

	ctx, cancel := callContext(r)
	defer cancel()
	completion, err := h.svc.Do(ctx, req.Prompt)
	if err != nil {
		h.fail(w, r, rl, err)
		return
	}
	completion = postproc.StripQuotes(completion)
	usage, err := h.usage(ctx, req.Prompt, completion)
	if err != nil {
		h.fail(w, r, rl, err)
		return
	}
	rl.debug(req.Prompt, completion)
	writeJSON(w, openai.CompletionResponse{
		ID:      uuid.NewString(),
		Object:  "text_completion",
		Created: time.Now().Unix(),
		Model:   h.svc.ModelName(),
		Choices: []openai.CompletionChoice{{Text: completion, FinishReason: "stop"}},
		Usage:   &usage,
	})
	rl.end(http.StatusOK, nil)
}

// chatCompletions godoc
// @Summary      Next assistant message
// @Description  Renders the messages to the chat grammar, runs "chat" and returns an OpenAI-style chat completion.
// @Tags         completions
// @Accept       json
// @Produce      json
// @Param        request  body      types.ChatRequest  true  "Conversation"
// @Success      200      {object}  openai.ChatCompletionResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      413      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Router       /chat/completions [post]
func (h *handlers) chatCompletions(w http.ResponseWriter, r *http.Request) {
	rl := startRequestLog(r, "chat")
	var req types.ChatRequest
	if status, ok := decodeJSON(w, r, &req); !ok {
		rl.end(status, nil)
		return
	}
	msgs, content, err := chatMessages(req.Messages)
	if err != nil {
		h.fail(w, r, rl, err)
		return
	}

	ctx, cancel := callContext(r)
	defer cancel()
	completion, err := h.svc.ChatMessages(ctx, msgs)
	if err != nil {
		h.fail(w, r, rl, err)
		return
	}
	completion = postproc.StripQuotes(completion)
	usage, err := h.usage(ctx, content, completion)
	if err != nil {
		h.fail(w, r, rl, err)
		return
	}
	rl.debug(content, completion)
	writeJSON(w, openai.ChatCompletionResponse{
		ID:      uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   h.svc.ModelName(),
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: completion},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: usage,
	})
	rl.end(http.StatusOK, nil)
}

// chatMessages validates wire messages and returns them with their contents
// joined by a space, which is what prompt usage is counted over.
func chatMessages(in []types.ChatMessage) ([]chatfmt.Message, string, error) {
	if len(in) < minChatMessages || len(in) > maxChatMessages {
		return nil, "", badRequestError{msg: "messages must contain between 1 and 5 items"}
	}
	msgs := make([]chatfmt.Message, len(in))
	contents := make([]string, len(in))
	for i, m := range in {
		role, err := chatfmt.ParseRole(m.Role)
		if err != nil {
			return nil, "", err
		}
		msgs[i] = chatfmt.Message{Role: role, Content: m.Content}
		contents[i] = m.Content
	}
	return msgs, strings.Join(contents, " "), nil
}

func (h *handlers) usage(ctx context.Context, prompt, completion string) (openai.Usage, error) {
	p, err := h.svc.CountTokens(ctx, prompt)
	if err != nil {
		return openai.Usage{}, err
	}
	c, err := h.svc.CountTokens(ctx, completion)
	if err != nil {
		return openai.Usage{}, err
	}
	observeTokens(p, c)
	return openai.Usage{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c}, nil
}

// fail maps err to a status and writes the error response. A request whose
// client went away or whose server is shutting down gets no response.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, rl requestLog, err error) {
	if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
		rl.end(499, err)
		return
	}
	status := statusFor(err)
	writeJSONError(w, status, err.Error())
	rl.end(status, err)
}
