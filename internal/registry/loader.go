package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	json "github.com/goccy/go-json"

	"lmapi/internal/common/fsutil"
	"lmapi/pkg/types"
)

// BootstrapFile is the metadata file that marks an artifact directory.
const BootstrapFile = "bootstrap_config.json"

var bitsPattern = regexp.MustCompile(`\d+`)

// BitsPerParam extracts the bit width from a quantization string such as
// "int8" or "int8_float16" (first number wins).
func BitsPerParam(quantization string) (int, error) {
	m := bitsPattern.FindString(quantization)
	if m == "" {
		return 0, fmt.Errorf("quantization %q has no bit width", quantization)
	}
	return strconv.Atoi(m)
}

// SizeGB estimates the in-memory size of a model in gigabytes.
func SizeGB(params int64, quantization string) (float64, error) {
	bits, err := BitsPerParam(quantization)
	if err != nil {
		return 0, err
	}
	return float64(params) * float64(bits) / 8 / 1e9, nil
}

// LoadBootstrap reads dir/bootstrap_config.json and derives the size.
func LoadBootstrap(dir string) (types.ModelInfo, error) {
	var info types.ModelInfo
	abs, err := fsutil.ResolveDir(dir)
	if err != nil {
		return info, err
	}
	b, err := os.ReadFile(filepath.Join(abs, BootstrapFile))
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(b, &info); err != nil {
		return info, fmt.Errorf("%s: %w", BootstrapFile, err)
	}
	if info.Name == "" {
		return info, fmt.Errorf("%s: missing name", filepath.Join(abs, BootstrapFile))
	}
	if info.Params <= 0 {
		return info, fmt.Errorf("%s: params must be positive", info.Name)
	}
	switch info.Architecture {
	case "":
		info.Architecture = types.ArchEncoderDecoder
	case types.ArchEncoderDecoder, types.ArchDecoderOnly:
	default:
		return info, fmt.Errorf("%s: unknown architecture %q", info.Name, info.Architecture)
	}
	if info.SizeGB, err = SizeGB(info.Params, info.Quantization); err != nil {
		return info, fmt.Errorf("%s: %w", info.Name, err)
	}
	info.Path = abs
	return info, nil
}

// LoadCatalog builds a catalog from an artifact root. The root itself is a
// model when it holds a bootstrap file; every direct sub-directory holding
// one is a model too.
func LoadCatalog(root string) (*Catalog, error) {
	abs, err := fsutil.ResolveDir(root)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	dirs := []string{abs}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(abs, e.Name()))
		}
	}
	c := &Catalog{}
	for _, d := range dirs {
		if !fsutil.IsFile(filepath.Join(d, BootstrapFile)) {
			continue
		}
		info, err := LoadBootstrap(d)
		if err != nil {
			return nil, err
		}
		if _, dup := c.Lookup(info.Name); dup {
			return nil, fmt.Errorf("duplicate model name %q in %s", info.Name, d)
		}
		c.models = append(c.models, info)
	}
	if len(c.models) == 0 {
		return nil, ErrNoModels{Root: abs}
	}
	return c, nil
}

// ErrNoModels reports an artifact root without any bootstrap file.
type ErrNoModels struct{ Root string }

func (e ErrNoModels) Error() string {
	return "no " + BootstrapFile + " found under " + e.Root
}

// IsNoModels reports whether err is an ErrNoModels.
func IsNoModels(err error) bool {
	var e ErrNoModels
	return errors.As(err, &e)
}
