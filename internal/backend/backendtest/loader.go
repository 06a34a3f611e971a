package backendtest

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"

	"lmapi/internal/backend"
	"lmapi/pkg/types"
)

// Loader hands out the same tokenizer and translator on every load and counts
// loads and closes.
type Loader struct {
	Tokenizer  *Tokenizer
	Translator *Translator
	// Err, when set, fails every load.
	Err error

	mu     sync.Mutex
	loads  int
	closes int
}

// NewLoader returns a loader around a fresh tokenizer and tr.
func NewLoader(tr *Translator) *Loader {
	if tr == nil {
		tr = &Translator{}
	}
	return &Loader{Tokenizer: NewTokenizer(), Translator: tr}
}

func (l *Loader) Load(ctx context.Context, info types.ModelInfo) (backend.Artifacts, error) {
	if l.Err != nil {
		return backend.Artifacts{}, l.Err
	}
	if err := ctx.Err(); err != nil {
		return backend.Artifacts{}, err
	}
	l.mu.Lock()
	l.loads++
	l.mu.Unlock()
	return backend.NewArtifacts(info, l.Tokenizer, l.Translator, func() error {
		l.mu.Lock()
		l.closes++
		l.mu.Unlock()
		return nil
	}), nil
}

// Loads reports how many times Load succeeded.
func (l *Loader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

// Closes reports how many loaded artifacts were closed.
func (l *Loader) Closes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closes
}

// Model returns metadata for a small encoder-decoder test model.
func Model(name string) types.ModelInfo {
	return types.ModelInfo{
		Name:         name,
		Quantization: "int8",
		Params:       248000000,
		PromptFormat: "{instruction}",
		Architecture: types.ArchEncoderDecoder,
		License:      "apache-2.0",
		SizeGB:       0.248,
	}
}

// WriteArtifacts lays out an artifact directory under dir: the bootstrap
// metadata and, when tok is non-nil, its tokenizer.json.
func WriteArtifacts(dir string, info types.ModelInfo, tok *Tokenizer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	info.Path = ""
	info.SizeGB = 0
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "bootstrap_config.json"), b, 0o644); err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	return tok.WriteTokenizerJSON(dir)
}
