package lm

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"lmapi/internal/backend"
	"lmapi/internal/backend/backendtest"
	"lmapi/internal/config"
	"lmapi/pkg/types"
)

// countingSource wraps fixed artifacts and counts acquire/release pairs.
type countingSource struct {
	a        backend.Artifacts
	acquired atomic.Int32
	released atomic.Int32
}

func (s *countingSource) Model() (types.ModelInfo, error) { return s.a.Info, nil }

func (s *countingSource) Acquire(context.Context) (backend.Artifacts, func(), error) {
	s.acquired.Add(1)
	return s.a, func() { s.released.Add(1) }, nil
}

type fixture struct {
	client *Client
	tr     *backendtest.Translator
	src    *countingSource
	store  *config.Store
}

func newFixture(t *testing.T, tr *backendtest.Translator, overrides map[string]string, mut ...func(*Options)) fixture {
	t.Helper()
	if tr == nil {
		tr = &backendtest.Translator{}
	}
	info := backendtest.Model("m")
	a, err := backendtest.NewLoader(tr).Load(context.Background(), info)
	require.NoError(t, err)
	store, err := config.New(config.Options{
		KnownModels: []string{info.Name},
		Getenv:      func(string) string { return "" },
		Overrides:   overrides,
	})
	require.NoError(t, err)
	src := &countingSource{a: a}
	opts := Options{Store: store, Source: src}
	for _, m := range mut {
		m(&opts)
	}
	return fixture{client: New(opts), tr: tr, src: src, store: store}
}
