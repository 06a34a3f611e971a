package manager

import (
	"time"

	"lmapi/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{State: m.state, Lazy: m.lazy, Err: m.err}
	if m.loaded != nil {
		info := m.loaded.Info
		s.Model = &info
	}
	return s
}

// Status builds a detailed status response for /status. In lazy mode the
// configured model is reported even though nothing stays loaded.
func (m *Manager) Status() types.StatusResponse {
	snap := m.Snapshot()
	m.mu.RLock()
	loads := m.loads
	m.mu.RUnlock()
	now := time.Now()
	resp := types.StatusResponse{
		State:          string(snap.State),
		Model:          snap.Model,
		Lazy:           snap.Lazy,
		Config:         m.store.Values(),
		LastError:      snap.Err,
		LoadsTotal:     loads,
		UptimeSeconds:  int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
	if resp.Model == nil {
		if info, err := m.Model(); err == nil {
			resp.Model = &info
		}
	}
	return resp
}
