package reconcile

import (
	"sync"
	"sync/atomic"
)

// Guard is a process-wide exclusivity flag for reconciliation runs.
// Callers that cannot acquire it are rejected immediately; nothing is queued.
//
//	release, ok := guard.TryAcquire()
//	if !ok {
//	    return // already running
//	}
//	defer release()
type Guard struct {
	running atomic.Bool
}

// TryAcquire sets the flag if it is clear. On success it returns a release
// function that clears the flag; calling it more than once is harmless.
func (g *Guard) TryAcquire() (release func(), ok bool) {
	if !g.running.CompareAndSwap(false, true) {
		return nil, false
	}

	var once sync.Once
	return func() {
		once.Do(func() { g.running.Store(false) })
	}, true
}

// Running reports whether a run currently holds the flag.
func (g *Guard) Running() bool {
	return g.running.Load()
}
