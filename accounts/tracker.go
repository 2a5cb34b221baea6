// Package accounts implements the sub-account pool: per-owner free/in-use
// address sets that give a pending job exclusive custody over an isolated
// account.
package accounts

import (
	"sync"

	schedulererrors "github.com/warpscheduler/core/schedulererrors"
)

// Tracker maintains, per owner, a disjoint free/in-use partition of
// sub-account addresses. The owner's default account (identified by the
// empty address) is exempt from tracking: Occupy/Free calls against it are
// silently ignored, since it is shared across all of the owner's
// non-isolated jobs rather than exclusively held by one.
type Tracker struct {
	mu    sync.RWMutex
	pools map[string]*ownerPool
}

type ownerPool struct {
	free  map[string]bool
	inUse map[string]uint64 // address -> job id
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{pools: make(map[string]*ownerPool)}
}

func (t *Tracker) pool(owner string) *ownerPool {
	p, ok := t.pools[owner]
	if !ok {
		p = &ownerPool{free: make(map[string]bool), inUse: make(map[string]uint64)}
		t.pools[owner] = p
	}
	return p
}

// Seed registers addr as free for owner, making it available for a future
// Occupy. A no-op for the empty (default account) address.
func (t *Tracker) Seed(owner, addr string) {
	if addr == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.pool(owner)
	if _, inUse := p.inUse[addr]; inUse {
		return
	}
	p.free[addr] = true
}

// Occupy moves addr from free to in-use under jobID, failing
// AccountAlreadyOccupied if addr is already in use. The empty address
// (the owner's default account) is exempt and always succeeds as a no-op.
func (t *Tracker) Occupy(owner, addr string, jobID uint64) error {
	if addr == "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.pool(owner)
	if _, inUse := p.inUse[addr]; inUse {
		return schedulererrors.AccountAlreadyOccupied(addr)
	}
	delete(p.free, addr)
	p.inUse[addr] = jobID
	return nil
}

// Free moves addr from in-use back to free, failing AccountAlreadyFree if
// addr is not currently in use. The empty address is exempt and always
// succeeds as a no-op.
func (t *Tracker) Free(owner, addr string) error {
	if addr == "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.pool(owner)
	if _, inUse := p.inUse[addr]; !inUse {
		return schedulererrors.AccountAlreadyFree(addr)
	}
	delete(p.inUse, addr)
	p.free[addr] = true
	return nil
}

// IsInUse reports whether addr is currently occupied for owner, and the job
// id holding it.
func (t *Tracker) IsInUse(owner, addr string) (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.pools[owner]
	if !ok {
		return 0, false
	}
	id, ok := p.inUse[addr]
	return id, ok
}

// FreeAddresses returns the free address set for owner (used by
// QueryAccount); order is unspecified.
func (t *Tracker) FreeAddresses(owner string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.pools[owner]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(p.free))
	for addr := range p.free {
		out = append(out, addr)
	}
	return out
}

// InUseAddresses returns the in-use address -> job id map for owner (used by
// QueryAccount).
func (t *Tracker) InUseAddresses(owner string) map[string]uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.pools[owner]
	if !ok {
		return nil
	}
	out := make(map[string]uint64, len(p.inUse))
	for addr, id := range p.inUse {
		out[addr] = id
	}
	return out
}
