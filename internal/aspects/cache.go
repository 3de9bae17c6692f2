package aspects

import (
	"encoding/json"
	"sync"
)

// Cache remembers the most recent same-set detection. Lookup, compare and store
// happen under one lock, so a Cache may be shared between goroutines.
type Cache struct {
	mu     sync.Mutex
	key    string
	result []Aspect
	valid  bool
	hits   int
	misses int
}

// NewCache returns an empty single-slot cache.
func NewCache() *Cache {
	return &Cache{}
}

// Stats returns how many lookups were served from the cache and how many computed.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Reset forgets the cached result.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key, c.result, c.valid = "", nil, false
}

// do returns the cached result for key, or runs compute and caches its result.
// Errors are not cached.
func (c *Cache) do(key string, compute func() ([]Aspect, error)) ([]Aspect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.key == key {
		c.hits++
		return c.result, nil
	}
	c.misses++
	result, err := compute()
	if err != nil {
		return nil, err
	}
	c.key, c.result, c.valid = key, result, true
	return result, nil
}

type fingerprintBody struct {
	Name      string  `json:"n"`
	Longitude float64 `json:"l"`
}

// Fingerprint identifies a detection input as the JSON encoding of the settings and
// the ordered bodies. ok is false when the input has no encoding (a NaN or infinite
// number), in which case it must not be cached.
func Fingerprint(bodies []Body, settings Settings) (key string, ok bool) {
	ordered := make([]fingerprintBody, len(bodies))
	for i, b := range bodies {
		ordered[i] = fingerprintBody{Name: b.Name, Longitude: b.Longitude}
	}
	// Map keys are emitted sorted, so equal settings serialize identically.
	raw, err := json.Marshal(struct {
		Settings Settings          `json:"s"`
		Bodies   []fingerprintBody `json:"b"`
	}{settings, ordered})
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// Detector runs same-set detection through an injected cache. A nil cache turns
// memoisation off.
type Detector struct {
	cache *Cache
}

// NewDetector returns a detector memoising into cache.
func NewDetector(cache *Cache) *Detector {
	return &Detector{cache: cache}
}

// Detect is the memoised form of the package-level Detect. An identical repeated call
// returns the very slice returned before, so callers must not modify it.
func (d *Detector) Detect(bodies []Body, settings Settings) ([]Aspect, error) {
	if d == nil || d.cache == nil {
		return Detect(bodies, settings)
	}
	key, ok := Fingerprint(bodies, settings)
	if !ok {
		return Detect(bodies, settings)
	}
	return d.cache.do(key, func() ([]Aspect, error) {
		return Detect(bodies, settings)
	})
}

// DetectCross delegates to DetectCross; cross-set results are not cached.
func (d *Detector) DetectCross(a, b []Body, settings Settings) ([]Aspect, error) {
	return DetectCross(a, b, settings)
}
