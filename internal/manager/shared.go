package manager

import (
	"sync"

	"github.com/rs/zerolog"

	"lmapi/internal/backend"
)

// shared is a preloaded model handed out to concurrent calls. Once retired it
// is closed by whoever lets go last: retire itself when idle, otherwise the
// final release.
type shared struct {
	backend.Artifacts
	log zerolog.Logger

	mu      sync.Mutex
	refs    int
	retired bool
}

func newShared(a backend.Artifacts, log zerolog.Logger) *shared {
	return &shared{Artifacts: a, log: log}
}

// hold registers one user and returns its release func, safe to call twice.
func (s *shared) hold() func() {
	s.mu.Lock()
	s.refs++
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(s.release) }
}

func (s *shared) release() {
	s.mu.Lock()
	s.refs--
	last := s.retired && s.refs == 0
	s.mu.Unlock()
	if !last {
		return
	}
	if err := s.Close(); err != nil {
		s.log.Warn().Err(err).Str("model", s.Info.Name).Msg("close after release failed")
	}
}

// retire stops new holders from seeing s (the caller has already unpublished
// it) and closes it now when nobody holds it. A deferred close reports its
// error through the log instead.
func (s *shared) retire() error {
	s.mu.Lock()
	s.retired = true
	idle := s.refs == 0
	s.mu.Unlock()
	if !idle {
		return nil
	}
	return s.Close()
}
