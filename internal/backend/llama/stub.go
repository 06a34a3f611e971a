//go:build !llama

package llama

import (
	"context"

	"lmapi/internal/backend"
	"lmapi/pkg/types"
)

// Built reports whether this binary carries the in-process runtime.
const Built = false

// Loader refuses to load without the 'llama' build tag.
type Loader struct {
	opts Options
}

func NewLoader(opts Options) *Loader { return &Loader{opts: opts.withDefaults()} }

func (l *Loader) Load(ctx context.Context, info types.ModelInfo) (backend.Artifacts, error) {
	return backend.Artifacts{}, backend.ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
