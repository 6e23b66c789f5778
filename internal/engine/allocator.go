package engine

import (
	"github.com/roach88/onvoc/internal/vocab"
)

// IDSource exposes every identifier number issued so far. Implemented by
// *store.Store and *store.Scan.
type IDSource interface {
	IssuedNumbers() []int64
}

// Allocator issues identifiers strictly above every number in its source.
// Gaps left by removals are never filled.
type Allocator struct {
	scheme vocab.IDScheme
	last   int64
}

// NewAllocator scans src once and starts after its highest number.
func NewAllocator(src IDSource, scheme vocab.IDScheme) *Allocator {
	var last int64
	for _, n := range src.IssuedNumbers() {
		if n > last {
			last = n
		}
	}
	return &Allocator{scheme: scheme, last: last}
}

// Next returns a fresh identifier. It fails, without consuming a number,
// when the scheme's width is exhausted.
func (a *Allocator) Next() (string, error) {
	id, err := a.scheme.Format(a.last + 1)
	if err != nil {
		return "", err
	}
	a.last++
	return id, nil
}

// NextID derives the next identifier for src without keeping state.
func NextID(src IDSource, scheme vocab.IDScheme) (string, error) {
	return NewAllocator(src, scheme).Next()
}
