package mdct

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheLimit is the entry cap of a Cache whose Limit is zero.
const DefaultCacheLimit = 64

// Cache memoises filter banks by coefficient vector, so repeated one-shot
// calls with the same window build and invert the matrices once.
// The zero value is ready to use.
//
// Storing a bank into a full cache drops every cached bank first, so a
// caller sweeping over many distinct windows keeps at most Limit banks alive.
type Cache struct {
	// Limit caps the number of cached banks. Zero means DefaultCacheLimit.
	Limit int

	banks sync.Map // string -> *FilterBank
	count atomic.Int64
	group singleflight.Group
}

// Shared is the process-wide cache used by Analyze and Synthesize.
var Shared = &Cache{}

// Get returns the sequential filter bank for fb, building it on first use.
// Concurrent first requests for the same fb build it once.
func (c *Cache) Get(fb []float64) (*FilterBank, error) {
	key := cacheKey(fb)
	if b, ok := c.banks.Load(key); ok {
		return b.(*FilterBank), nil //nolint:forcetypeassert // only *FilterBank is stored
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if b, ok := c.banks.Load(key); ok {
			return b, nil
		}
		coeffs := make([]float64, len(fb))
		copy(coeffs, fb)
		b, err := newFilterBank(coeffs, WindowCustom, 1)
		if err != nil {
			return nil, err
		}
		if c.count.Load() >= int64(c.limit()) {
			c.Purge()
		}
		if _, loaded := c.banks.LoadOrStore(key, b); !loaded {
			c.count.Add(1)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*FilterBank), nil //nolint:forcetypeassert // see above
}

// Len returns the number of cached filter banks.
func (c *Cache) Len() int {
	return int(c.count.Load())
}

// Purge drops all cached filter banks.
func (c *Cache) Purge() {
	c.banks.Clear()
	c.count.Store(0)
}

func (c *Cache) limit() int {
	if c.Limit > 0 {
		return c.Limit
	}
	return DefaultCacheLimit
}

func cacheKey(fb []float64) string {
	buf := make([]byte, 0, len(fb)*8)
	for _, v := range fb {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return string(buf)
}
