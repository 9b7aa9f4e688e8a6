package backup

import (
	"errors"
	"sync"
)

// ErrShuttingDown is returned when a backup would open a quiesce window after
// shutdown started.
var ErrShuttingDown = errors.New("backups are shutting down")

// quiesceGate counts open quiesce windows. Once closed it admits no new ones.
type quiesceGate struct {
	mu     sync.Mutex
	cond   *sync.Cond
	open   int
	closed bool
}

func newQuiesceGate() *quiesceGate {
	g := &quiesceGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *quiesceGate) enter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.open++
	return true
}

func (g *quiesceGate) leave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open--
	if g.open == 0 {
		g.cond.Broadcast()
	}
}

// closeAndWait refuses new windows and blocks until every open one has left.
func (g *quiesceGate) closeAndWait() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for g.open > 0 {
		g.cond.Wait()
	}
}
