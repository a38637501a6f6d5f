package navigator

import (
	"sync"

	"github.com/dgallion1/docnav/internal/navtree"
)

// Highlighter keeps one navigation entry selected based on scroll offset.
// The position cache is replaced wholesale on Reset, never edited in place.
type Highlighter struct {
	mu        sync.Mutex
	positions []navtree.HeaderPosition
	selected  string
}

// Reset replaces the position cache. Positions must be in document order.
func (h *Highlighter) Reset(positions []navtree.HeaderPosition) {
	cache := make([]navtree.HeaderPosition, len(positions))
	copy(cache, positions)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.positions = cache
}

// Positions returns a copy of the position cache.
func (h *Highlighter) Positions() []navtree.HeaderPosition {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]navtree.HeaderPosition, len(h.positions))
	copy(out, h.positions)
	return out
}

// Update selects the lowest heading whose offset is at or above the scroll
// offset. It returns the selected navigation identifier ("" for none) and
// whether the selection changed.
func (h *Highlighter) Update(scroll float64) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := ""
	for i := len(h.positions) - 1; i >= 0; i-- {
		if h.positions[i].Offset <= scroll {
			next = h.positions[i].NavID
			break
		}
	}
	changed := next != h.selected
	h.selected = next
	return next, changed
}

// Selected returns the currently selected navigation identifier.
func (h *Highlighter) Selected() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.selected
}

// Offset returns the cached offset for a navigation identifier.
func (h *Highlighter) Offset(navID string) (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.positions {
		if p.NavID == navID {
			return p.Offset, true
		}
	}
	return 0, false
}
