package permission

import "sync"

// MemoryAuthority is an in-process permission authority.
//
// It stands in for the environment-owned authority in tests and in the
// CLI: a harness goroutine can Grant and Revoke permissions while a
// caller polls, reproducing the asynchronous grant changes the real
// platform performs.
//
// Safe for concurrent use.
type MemoryAuthority struct {
	mu     sync.RWMutex
	grants map[string]map[Permission]bool
}

// NewMemoryAuthority builds an empty authority: nothing is granted.
func NewMemoryAuthority() *MemoryAuthority {
	return &MemoryAuthority{
		grants: make(map[string]map[Permission]bool),
	}
}

// IsGranted implements Authority.
func (a *MemoryAuthority) IsGranted(callerID string, perm Permission) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.grants[callerID][perm]
}

// Grant marks the permission as granted for the caller.
func (a *MemoryAuthority) Grant(callerID string, perm Permission) {
	a.set(callerID, perm, true)
}

// Revoke marks the permission as not granted for the caller.
func (a *MemoryAuthority) Revoke(callerID string, perm Permission) {
	a.set(callerID, perm, false)
}

func (a *MemoryAuthority) set(callerID string, perm Permission, granted bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	caller, ok := a.grants[callerID]
	if !ok {
		caller = make(map[Permission]bool)
		a.grants[callerID] = caller
	}
	caller[perm] = granted
}
