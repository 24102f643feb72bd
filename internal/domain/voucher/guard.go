package voucher

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// CodeGuard is a bloom filter over every issued voucher code. It lets the
// redemption path reject probe traffic for codes that were definitely never
// issued without touching storage. False positives fall through to the
// store lookup, so the guard can only ever say "maybe".
type CodeGuard struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewCodeGuard sizes a guard for the expected number of codes and target
// false-positive rate.
func NewCodeGuard(capacity uint, fpr float64) *CodeGuard {
	return &CodeGuard{filter: bloom.NewWithEstimates(capacity, fpr)}
}

// Add records an issued code.
func (g *CodeGuard) Add(code string) {
	g.mu.Lock()
	g.filter.AddString(code)
	g.mu.Unlock()
}

// MayExist reports whether code could have been issued. A false result is
// definitive; a true result still requires a store lookup.
func (g *CodeGuard) MayExist(code string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.filter.TestString(code)
}

// Warm loads every issued code from the store into the guard. Called once
// at startup, before the guard is consulted.
func (g *CodeGuard) Warm(ctx context.Context, store Store) error {
	return store.ListCodes(ctx, func(code string) error {
		g.Add(code)
		return nil
	})
}
