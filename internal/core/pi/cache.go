package pi

import (
	"context"
	"sync/atomic"
)

// Cache memoises computed values in process memory.
//
// Lookup may serve any precision up to the largest value published, since a
// truncated expansion is exact. Publish must be atomic: readers observe either
// the previous value or the complete new one.
type Cache interface {
	Lookup(digits int) (Value, bool)
	Publish(value Value)
	Max() (Value, bool)
}

// Store persists computed values across process restarts.
type Store interface {
	// LoadPi returns the most precise stored value when it has at least
	// minDigits fractional digits.
	LoadPi(ctx context.Context, minDigits int) (Value, bool, error)
	// SavePi persists value.
	SavePi(ctx context.Context, value Value) error
}

// MemoryCache keeps the most precise value published so far.
type MemoryCache struct {
	best atomic.Pointer[Value]
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Lookup returns the cached expansion truncated to digits.
func (c *MemoryCache) Lookup(digits int) (Value, bool) {
	if c == nil || digits < 0 {
		return Value{}, false
	}
	best := c.best.Load()
	if best == nil || best.digits < digits {
		return Value{}, false
	}
	value, err := best.Truncate(digits)
	if err != nil {
		return Value{}, false
	}
	return value, true
}

// Publish replaces the cached value when value is more precise.
func (c *MemoryCache) Publish(value Value) {
	if c == nil || value.IsZero() {
		return
	}
	candidate := &value
	for {
		current := c.best.Load()
		if current != nil && current.digits >= value.digits {
			return
		}
		if c.best.CompareAndSwap(current, candidate) {
			return
		}
	}
}

// Max returns the most precise cached value.
func (c *MemoryCache) Max() (Value, bool) {
	if c == nil {
		return Value{}, false
	}
	best := c.best.Load()
	if best == nil {
		return Value{}, false
	}
	return *best, true
}
