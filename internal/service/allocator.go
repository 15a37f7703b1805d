package service

import "clubledger/internal/core"

// IDAllocator issues fixed-width decimal game identifiers. IDs grow
// monotonically for the lifetime of the ledger and are never reused,
// even after the game they named is deleted.
type IDAllocator struct {
	max uint64
}

// Next issues the next identifier.
func (a *IDAllocator) Next() string {
	a.max++
	return core.FormatID(a.max)
}

// Current returns the highest issued identifier without consuming one.
func (a *IDAllocator) Current() string {
	return core.FormatID(a.max)
}

// Reset sets the high-water mark, typically from a startup scan of the
// existing ledger.
func (a *IDAllocator) Reset(max uint64) {
	a.max = max
}
