package board

import (
	"sync"

	"traveler/internal/canvas"
)

// liveOverlay holds ephemeral drag positions keyed by item id. It is a
// separate observable tier from the store: renderers read it every
// frame, and it is wiped the moment a drag finishes.
type liveOverlay struct {
	mu  sync.RWMutex
	pos map[string]canvas.Point
}

func (l *liveOverlay) set(id string, p canvas.Point) {
	l.mu.Lock()
	if l.pos == nil {
		l.pos = make(map[string]canvas.Point)
	}
	l.pos[id] = p
	l.mu.Unlock()
}

func (l *liveOverlay) get(id string) (canvas.Point, bool) {
	l.mu.RLock()
	p, ok := l.pos[id]
	l.mu.RUnlock()
	return p, ok
}

func (l *liveOverlay) clear(id string) {
	l.mu.Lock()
	delete(l.pos, id)
	l.mu.Unlock()
}

func (l *liveOverlay) reset() {
	l.mu.Lock()
	l.pos = nil
	l.mu.Unlock()
}
