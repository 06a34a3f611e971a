// Package manager owns the model lifecycle. It is structured into small files
// by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: lifecycle state and the Snapshot projection.
//   - errors.go: error types and helpers (IsNotReady, IsModelNotFound).
//   - load.go: Preload and per-call Acquire (shared or lazily loaded artifacts).
//   - status.go: Status reporting for /status.
//   - events.go, eventpub_memory.go: lifecycle events.
//
// Two loading modes exist. With preload the configured model is loaded once
// and shared by every call; until that succeeds the manager is not ready.
// In lazy mode every call loads the model and releases it when done.
//
// External packages should use the public methods only (New/NewWithConfig,
// Preload, Acquire, Ready, Status, ListModels, Client, Close).
package manager
