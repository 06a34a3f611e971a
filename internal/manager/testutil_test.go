package manager

import (
	"testing"

	"lmapi/internal/backend/backendtest"
	"lmapi/internal/config"
	"lmapi/internal/registry"
)

// newTestManager builds a manager over a two-model catalog with "small"
// configured.
func newTestManager(t *testing.T, loader *backendtest.Loader, mut func(*ManagerConfig)) *Manager {
	t.Helper()
	small := backendtest.Model("small")
	big := backendtest.Model("big")
	big.Params = 3000000000
	big.SizeGB = 3
	cat := registry.NewCatalog(small, big)
	store, err := config.New(config.Options{
		KnownModels: cat.Names(),
		Getenv:      func(string) string { return "" },
		Overrides:   map[string]string{config.KeyName: "small"},
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg := ManagerConfig{Catalog: cat, Store: store, Loader: loader}
	if mut != nil {
		mut(&cfg)
	}
	m := NewWithConfig(cfg)
	t.Cleanup(func() { _ = m.Close() })
	return m
}
