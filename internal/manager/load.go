package manager

import (
	"context"
	"time"

	"lmapi/internal/backend"
)

// Preload loads the configured model once and shares it with every call. A
// model already loaded under the same name is kept; a different one replaces
// it, and the old artifacts are closed after their last in-flight call.
func (m *Manager) Preload(ctx context.Context) error {
	info, err := m.Model()
	if err != nil {
		m.fail(err)
		return err
	}
	m.mu.Lock()
	if m.loaded != nil && m.loaded.Info.Name == info.Name {
		m.mu.Unlock()
		return nil
	}
	m.state = StateLoading
	m.err = ""
	m.mu.Unlock()

	pub := m.pub()
	pub.Publish(Event{Name: EventPreloadStart, Model: info.Name})
	start := time.Now()
	a, err := m.loader.Load(ctx, info)
	if err != nil {
		m.fail(err)
		pub.Publish(Event{Name: EventPreloadError, Model: info.Name, Fields: map[string]any{"error": err.Error()}})
		m.log.Error().Err(err).Str("model", info.Name).Msg("preload failed")
		return err
	}

	m.mu.Lock()
	prev := m.loaded
	m.loaded = newShared(a, m.log)
	m.loads++
	m.state = StateReady
	m.mu.Unlock()
	if prev != nil {
		if err := prev.retire(); err != nil {
			m.log.Warn().Err(err).Str("model", prev.Info.Name).Msg("closing replaced model failed")
		}
	}
	dur := time.Since(start)
	pub.Publish(Event{Name: EventPreloadDone, Model: info.Name, Fields: map[string]any{"dur_ms": dur.Milliseconds()}})
	m.log.Info().Str("model", info.Name).Float64("size_gb", info.SizeGB).Dur("dur", dur).Msg("model loaded")
	return nil
}

func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.state = StateError
	m.err = err.Error()
	m.mu.Unlock()
}

// Acquire returns artifacts for one call. Preloaded artifacts are shared and
// stay open until released even if a later Preload replaces them; in lazy
// mode the model is loaded now and closed on release. Without lazy mode, calls before a successful preload fail with
// a not-ready error.
func (m *Manager) Acquire(ctx context.Context) (backend.Artifacts, func(), error) {
	m.mu.RLock()
	loaded, state, lazy := m.loaded, m.state, m.lazy
	var release func()
	if loaded != nil {
		release = loaded.hold()
	}
	m.mu.RUnlock()
	if loaded != nil {
		return loaded.Artifacts, release, nil
	}
	if !lazy {
		return backend.Artifacts{}, nil, notReadyError{state: state}
	}

	info, err := m.Model()
	if err != nil {
		return backend.Artifacts{}, nil, err
	}
	a, err := m.loader.Load(ctx, info)
	if err != nil {
		m.mu.Lock()
		m.err = err.Error()
		m.mu.Unlock()
		return backend.Artifacts{}, nil, err
	}
	m.mu.Lock()
	m.loads++
	m.err = ""
	m.mu.Unlock()
	m.pub().Publish(Event{Name: EventLazyLoad, Model: info.Name})
	m.log.Debug().Str("model", info.Name).Msg("lazy load")
	return a, func() {
		if err := a.Close(); err != nil {
			m.log.Warn().Err(err).Str("model", info.Name).Msg("release failed")
		}
	}, nil
}
