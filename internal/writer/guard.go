package writer

import "sync"

// hookGuard marks goroutines currently inside a capture so that work
// triggered by the host from within a hook is not recorded. It is checked
// before the writer lock is taken; a nested capture would otherwise block on
// a lock its own goroutine holds.
type hookGuard struct {
	mu     sync.Mutex
	active map[uint64]struct{}
}

func (g *hookGuard) enter(gid uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[gid]; busy {
		return false
	}
	if g.active == nil {
		g.active = make(map[uint64]struct{})
	}
	g.active[gid] = struct{}{}
	return true
}

func (g *hookGuard) exit(gid uint64) {
	g.mu.Lock()
	delete(g.active, gid)
	g.mu.Unlock()
}
