package correlation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Cache memoizes Factor results by a content hash of the element set's
// categorical attributes. Costs change far more often than ownership,
// discipline, phase, or location assignments, so most checkpoints that
// trigger a resample still share the same correlation structure as the
// checkpoint before them — recomputing the affinity matrix and its
// Cholesky factor on every one of those would be pure waste.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	factor   *Matrix
	details  []PairDetail
	repaired bool
	minEig   float64
}

// NewCache creates an empty correlation factor cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// FactorCached returns the cached factor for elements' content hash if
// present, otherwise builds the affinity matrix, factors it, and stores
// the result under that hash before returning it.
func (c *Cache) FactorCached(elements []Element, cfg Config) (factor *Matrix, details []PairDetail, repaired bool, minEig float64, err error) {
	key := ContentHash(elements)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return entry.factor, entry.details, entry.repaired, entry.minEig, nil
	}
	c.mu.Unlock()

	affinity, details := BuildAffinityMatrix(elements)
	factor, repaired, minEig, err = Factor(affinity, cfg)
	if err != nil {
		return nil, nil, false, minEig, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{factor: factor, details: details, repaired: repaired, minEig: minEig}
	c.mu.Unlock()

	return factor, details, repaired, minEig, nil
}

// ContentHash derives a stable key from the categorical attributes that
// determine affinity scoring. Two element sets with identical attributes
// in identical order always share the same correlation structure,
// regardless of how their cost quotes differ.
func ContentHash(elements []Element) string {
	h := sha256.New()
	for _, e := range elements {
		fmt.Fprintf(h, "%d|%s|%s|%s|%d|%s|%s|%s|%s;",
			e.Kind, e.Owner, e.Discipline, e.Phase, e.PhaseOrder,
			e.Location, e.ParentLocation, e.RiskCategory, e.RiskLog)
	}
	return hex.EncodeToString(h.Sum(nil))
}
