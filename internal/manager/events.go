package manager

// Event represents a manager lifecycle event: name, model and optional
// key/values.
type Event struct {
	Name   string
	Model  string
	Fields map[string]any
}

// Event names.
const (
	EventPreloadStart = "preload_start"
	EventPreloadDone  = "preload_done"
	EventPreloadError = "preload_error"
	EventLazyLoad     = "lazy_load"
	EventClose        = "close"
)

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
