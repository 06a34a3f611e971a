package manager

import "lmapi/pkg/types"

// State represents the lifecycle state of the configured model.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State State
	// Model is the preloaded model, nil until a preload succeeds.
	Model *types.ModelInfo
	Lazy  bool
	Err   string
}
