package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lmapi/internal/backend"
	"lmapi/internal/backend/llama"
	"lmapi/internal/backend/remote"
	"lmapi/internal/config"
	"lmapi/internal/manager"
	"lmapi/internal/registry"
)

// overrides merges the config file's options with --set values; --set wins.
func (s *settings) overrides() (map[string]string, error) {
	out := s.file.OptionOverrides()
	if out == nil {
		out = make(map[string]string)
	}
	for _, kv := range s.sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("--set expects key=value, got %q", kv)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func (s *settings) catalog() (*registry.Catalog, error) {
	if s.artifactDir == "" {
		return nil, fmt.Errorf("artifact directory not configured: set --artifact-dir, LMAPI_ARTIFACT_DIR or LLM_ARTIFACT_DIR")
	}
	return registry.LoadCatalog(s.artifactDir)
}

// store builds the option store over the catalog's model names.
func (s *settings) store(cat *registry.Catalog) (*config.Store, error) {
	ov, err := s.overrides()
	if err != nil {
		return nil, err
	}
	return config.New(config.Options{
		KnownModels: cat.Names(),
		Overrides:   ov,
		Getenv:      s.env,
		Chooser:     manager.ModelChooser(cat),
	})
}

// loader picks the sidecar client when a URL is configured, the in-process
// runtime otherwise.
func (s *settings) loader() backend.Loader {
	if s.backendURL != "" {
		return remote.NewLoader(remote.Options{
			BaseURL: s.backendURL,
			Retries: s.backendRetries,
			Logger:  s.log,
		})
	}
	return llama.NewLoader(llama.Options{Logger: s.log})
}

func (s *settings) openManager(lazy bool) (*manager.Manager, error) {
	cat, err := s.catalog()
	if err != nil {
		return nil, err
	}
	st, err := s.store(cat)
	if err != nil {
		return nil, err
	}
	var ttl time.Duration
	if v := s.file.ScoreCacheTTL; v != "" {
		if ttl, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("score_cache_ttl: %w", err)
		}
	}
	return manager.NewWithConfig(manager.ManagerConfig{
		Catalog:         cat,
		Store:           st,
		Loader:          s.loader(),
		Lazy:            lazy,
		ScoreCacheTTL:   ttl,
		MaxPromptTokens: s.file.MaxPromptTokens,
		Logger:          &s.log,
	}), nil
}

// withManager preloads the configured model, runs fn and releases the model.
func (s *settings) withManager(ctx context.Context, fn func(ctx context.Context, m *manager.Manager) error) error {
	m, err := s.openManager(false)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Preload(ctx); err != nil {
		return err
	}
	return fn(ctx, m)
}
