package types

// CompletionRequest is the body of POST /completions.
type CompletionRequest struct {
	// Optional model name; ignored when it differs from the loaded model.
	// example: lamini-flan-t5-248m
	Model string `json:"model,omitempty" example:"lamini-flan-t5-248m"`
	// Instruction to follow.
	// example: Pick the sport from the list: baseball, texas, chemistry
	Prompt string `json:"prompt" example:"Pick the sport from the list: baseball, texas, chemistry"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// example: Hello World
	Message string `json:"message" example:"Hello World"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// Models found in the artifact directory.
	Models []ModelInfo `json:"models"`
	// Name of the configured model.
	// example: lamini-flan-t5-248m
	Current string `json:"current" example:"lamini-flan-t5-248m"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall state (idle, loading, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Configured model.
	Model *ModelInfo `json:"model,omitempty"`
	// True when artifacts are loaded per call instead of preloaded.
	// example: false
	Lazy bool `json:"lazy" example:"false"`
	// Effective option values.
	Config map[string]any `json:"config,omitempty"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Total number of artifact loads.
	// example: 1
	LoadsTotal uint64 `json:"loads_total" example:"1"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ChatMessage is one turn of a chat request.
type ChatMessage struct {
	// system, user or assistant.
	// example: user
	Role string `json:"role" example:"user"`
	// example: What is the capital of Germany?
	Content string `json:"content" example:"What is the capital of Germany?"`
}

// ChatRequest is the body of POST /chat/completions.
type ChatRequest struct {
	// Optional model name; ignored when it differs from the loaded model.
	Model string `json:"model,omitempty"`
	// Between 1 and 5 messages, oldest first.
	Messages []ChatMessage `json:"messages"`
}
