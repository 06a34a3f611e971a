package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lmapi/internal/backend"
	"lmapi/internal/config"
	"lmapi/internal/lm"
	"lmapi/internal/rank"
	"lmapi/internal/registry"
	"lmapi/pkg/types"
)

type Manager struct {
	mu        sync.RWMutex
	state     State
	loaded    *shared
	err       string
	loads     uint64
	startTime time.Time

	catalog   *registry.Catalog
	store     *config.Store
	loader    backend.Loader
	lazy      bool
	cache     *rank.ScoreCache
	publisher EventPublisher
	log       zerolog.Logger
	client    *lm.Client
}

// New returns a preloading Manager with package defaults.
func New(cat *registry.Catalog, store *config.Store, loader backend.Loader) *Manager {
	return NewWithConfig(ManagerConfig{Catalog: cat, Store: store, Loader: loader})
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:     StateIdle,
		catalog:   cfg.Catalog,
		store:     cfg.Store,
		loader:    cfg.Loader,
		lazy:      cfg.Lazy,
		publisher: cfg.Publisher,
		log:       zerolog.Nop(),
		startTime: time.Now(),
	}
	if m.catalog == nil {
		m.catalog = registry.NewCatalog()
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	}
	ttl := cfg.ScoreCacheTTL
	if ttl == 0 {
		ttl = defaultScoreCacheTTL
	}
	if ttl > 0 {
		m.cache = rank.NewScoreCache(ttl)
	}
	m.client = lm.New(lm.Options{
		Store:           m.store,
		Source:          m,
		ScoreCache:      m.cache,
		MaxPromptTokens: cfg.MaxPromptTokens,
		Logger:          cfg.Logger,
	})
	return m
}

// SetEventPublisher replaces the event publisher; nil restores the default.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	m.publisher = p
}

func (m *Manager) pub() EventPublisher {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.publisher
}

// Client returns the capability client bound to this manager.
func (m *Manager) Client() *lm.Client { return m.client }

// Store returns the configuration store.
func (m *Manager) Store() *config.Store { return m.store }

// Ready reports whether capability calls can be served: always in lazy mode,
// otherwise once preload succeeded.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lazy {
		return true
	}
	return m.state == StateReady && m.loaded != nil
}

// ListModels returns the catalog entries.
func (m *Manager) ListModels() []types.ModelInfo { return m.catalog.Models() }

// Model returns metadata of the configured model without loading it.
func (m *Manager) Model() (types.ModelInfo, error) {
	name := string(m.store.Snapshot().Name)
	info, ok := m.catalog.Lookup(name)
	if !ok {
		return types.ModelInfo{}, ErrModelNotFound(name)
	}
	return info, nil
}

// Close releases the preloaded model, once in-flight calls are done with it,
// and the score cache.
func (m *Manager) Close() error {
	m.mu.Lock()
	loaded := m.loaded
	m.loaded = nil
	m.state = StateIdle
	m.mu.Unlock()
	if m.cache != nil {
		m.cache.Close()
	}
	if loaded == nil {
		return nil
	}
	m.pub().Publish(Event{Name: EventClose, Model: loaded.Info.Name})
	return loaded.retire()
}
