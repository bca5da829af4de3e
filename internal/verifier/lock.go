package verifier

import "sync/atomic"

// RunLock provides non-blocking lock semantics using atomic operations.
// The MCP server uses it to reject a verification while another is running.
type RunLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *RunLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *RunLock) Release() {
	l.state.Store(0)
}

// Held reports whether the lock is currently taken
func (l *RunLock) Held() bool {
	return l.state.Load() == 1
}
