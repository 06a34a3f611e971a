package rank

import (
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// ScoreCache is a TTL cache of summed log probabilities keyed by model,
// strategy, prompt and candidate. Scores are deterministic for a loaded model,
// so repeated classifications skip the backend.
type ScoreCache struct {
	cache *ttlcache.Cache[string, float64]
}

// NewScoreCache creates a cache whose entries expire ttl after being stored.
func NewScoreCache(ttl time.Duration) *ScoreCache {
	c := ttlcache.New[string, float64](
		ttlcache.WithTTL[string, float64](ttl),
		ttlcache.WithDisableTouchOnHit[string, float64](),
	)
	go c.Start()
	return &ScoreCache{cache: c}
}

// Close stops the cache expiration loop.
func (sc *ScoreCache) Close() {
	sc.cache.Stop()
}

// Len reports the number of live entries.
func (sc *ScoreCache) Len() int { return sc.cache.Len() }

func (sc *ScoreCache) get(key string) (float64, bool) {
	item := sc.cache.Get(key)
	if item == nil {
		return 0, false
	}
	return item.Value(), true
}

func (sc *ScoreCache) set(key string, v float64) {
	sc.cache.Set(key, v, ttlcache.DefaultTTL)
}

func cacheKey(model string, s Strategy, prompt, candidate string) string {
	return strings.Join([]string{model, s.String(), prompt, candidate}, "\x00")
}
