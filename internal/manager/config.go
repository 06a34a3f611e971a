package manager

import (
	"time"

	"github.com/rs/zerolog"

	"lmapi/internal/backend"
	"lmapi/internal/config"
	"lmapi/internal/registry"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultScoreCacheTTL = 10 * time.Minute
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Catalog *registry.Catalog
	Store   *config.Store
	Loader  backend.Loader
	// Lazy loads the model for every call instead of preloading it once.
	Lazy bool
	// ScoreCacheTTL bounds how long ranking scores are reused. Zero uses the
	// package default; negative disables the cache.
	ScoreCacheTTL time.Duration
	// MaxPromptTokens bounds encoded prompts; zero disables the check.
	MaxPromptTokens int
	Logger          *zerolog.Logger
	Publisher       EventPublisher
}

// ModelChooser returns a config.Options.Chooser that picks the largest
// catalog model fitting the RAM budget and license filter.
func ModelChooser(cat *registry.Catalog) func(config.Config) string {
	return func(c config.Config) string {
		return cat.Select(float64(c.MaxRAM), c.ModelLicense.Matches).Name
	}
}
