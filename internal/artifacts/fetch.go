package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"lmapi/internal/common/fsutil"
)

// ErrEmptyPrefix is returned when a prefix holds no objects.
var ErrEmptyPrefix = errors.New("no artifacts under prefix")

// Fetcher mirrors a bucket prefix into a local directory.
type Fetcher struct {
	Store ObjectStore
	// Force re-downloads files whose local size already matches.
	Force  bool
	Logger zerolog.Logger
}

// Result summarizes a Fetch.
type Result struct {
	Downloaded []string
	Skipped    []string
}

// Fetch copies every object under prefix into dir, keeping the key layout
// below prefix. Files are written to a temporary name and renamed into place.
func (f *Fetcher) Fetch(ctx context.Context, prefix, dir string) (Result, error) {
	var res Result
	root, err := fsutil.ResolveDir(dir)
	if err != nil {
		return res, err
	}
	objs, err := f.Store.List(ctx, prefix)
	if err != nil {
		return res, fmt.Errorf("list %q: %w", prefix, err)
	}
	if len(objs) == 0 {
		return res, fmt.Errorf("%w %q", ErrEmptyPrefix, prefix)
	}
	base := prefix
	if base != "" && !strings.HasSuffix(base, "/") {
		base = base[:strings.LastIndex(base, "/")+1]
	}
	for _, obj := range objs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dst, err := fsutil.JoinWithin(root, strings.TrimPrefix(obj.Key, base))
		if err != nil {
			return res, err
		}
		if !f.Force {
			if fi, err := os.Stat(dst); err == nil && fi.Mode().IsRegular() && fi.Size() == obj.Size {
				res.Skipped = append(res.Skipped, dst)
				f.Logger.Debug().Str("key", obj.Key).Str("path", dst).Msg("artifact up to date")
				continue
			}
		}
		if err := f.download(ctx, obj.Key, dst); err != nil {
			return res, err
		}
		res.Downloaded = append(res.Downloaded, dst)
		f.Logger.Info().Str("key", obj.Key).Str("path", dst).Int64("bytes", obj.Size).Msg("artifact fetched")
	}
	return res, nil
}

func (f *Fetcher) download(ctx context.Context, key, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".fetch-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := f.Store.Download(ctx, key, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
