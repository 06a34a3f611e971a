package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"lmapi/internal/backend/backendtest"
	"lmapi/internal/backend/remote"
	"lmapi/internal/config"
	"lmapi/internal/httpapi"
	"lmapi/internal/manager"
	"lmapi/internal/registry"
)

// corpus seeds the fixture vocabulary with every word the scripted model
// can answer with.
const corpus = `Assistant: baseball Paris "Hello there"`

var replies = map[string]string{
	"Pick the sport":    "baseball",
	"capital of France": "Paris",
	"Say hello":         `"Hello there"`,
}

type stack struct {
	srv     *httptest.Server
	mgr     *manager.Manager
	sidecar *backendtest.Sidecar
	client  *openai.Client
}

// newStack serves one fixture model through the sidecar protocol, the
// manager and the HTTP API.
func newStack(t *testing.T, preload bool, mut func(*manager.ManagerConfig), configure ...func(*backendtest.Sidecar)) *stack {
	t.Helper()
	tok := backendtest.NewTokenizer(corpus)
	tr := &backendtest.Translator{Respond: backendtest.Script(replies, "")}
	sc := backendtest.NewSidecar(tok, tr)
	for _, fn := range configure {
		fn(sc)
	}
	side := httptest.NewServer(sc.Handler())
	t.Cleanup(side.Close)

	dir := t.TempDir()
	if err := backendtest.WriteArtifacts(filepath.Join(dir, "flan"), backendtest.Model("flan"), tok); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	cat, err := registry.LoadCatalog(dir)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	store, err := config.New(config.Options{
		KnownModels: cat.Names(),
		Getenv:      func(string) string { return "" },
		Chooser:     manager.ModelChooser(cat),
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg := manager.ManagerConfig{
		Catalog: cat,
		Store:   store,
		Loader:  remote.NewLoader(remote.Options{BaseURL: side.URL}),
		Lazy:    !preload,
	}
	if mut != nil {
		mut(&cfg)
	}
	mgr := manager.NewWithConfig(cfg)
	t.Cleanup(func() { _ = mgr.Close() })
	if preload {
		// a failed preload is part of some scenarios; status reports it
		_ = mgr.Preload(context.Background())
	}

	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)

	oc := openai.DefaultConfig("unused")
	oc.BaseURL = srv.URL
	return &stack{srv: srv, mgr: mgr, sidecar: sc, client: openai.NewClientWithConfig(oc)}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
