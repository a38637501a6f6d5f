// Package navigator builds in-page navigation trees from document headings
// and tracks which entry is selected as the page scrolls.
package navigator

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/docnav/internal/navtree"
)

// ErrUnknownTarget is returned when a scroll target is not in the tree or
// has no cached position.
var ErrUnknownTarget = errors.New("unknown scroll target")

// Layout reports the top offset of a rendered heading, by heading identifier.
type Layout interface {
	Offset(headingID string) (float64, bool)
}

// OffsetMap is a Layout backed by a map.
type OffsetMap map[string]float64

func (m OffsetMap) Offset(headingID string) (float64, bool) {
	v, ok := m[headingID]
	return v, ok
}

// Navigator owns the navigation tree of one page together with its
// position cache and current selection.
type Navigator struct {
	tree           *navtree.Tree
	hl             Highlighter
	scrollDuration time.Duration
}

// New creates a Navigator for a built tree.
func New(tree *navtree.Tree, scrollDuration time.Duration) *Navigator {
	if scrollDuration <= 0 {
		scrollDuration = DefaultScrollDuration
	}
	return &Navigator{tree: tree, scrollDuration: scrollDuration}
}

// Tree returns the navigation tree.
func (n *Navigator) Tree() *navtree.Tree {
	return n.tree
}

// Rebuild recomputes the position cache from the current layout. Entries
// whose heading is absent from the layout are left out. It returns the
// number of cached positions.
func (n *Navigator) Rebuild(layout Layout) int {
	positions := make([]navtree.HeaderPosition, 0, len(n.tree.Order))
	for _, e := range n.tree.Order {
		off, ok := layout.Offset(e.HeadingID)
		if !ok {
			continue
		}
		positions = append(positions, navtree.HeaderPosition{NavID: e.ID, Offset: off})
	}
	n.hl.Reset(positions)
	return len(positions)
}

// Positions returns a copy of the position cache.
func (n *Navigator) Positions() []navtree.HeaderPosition {
	return n.hl.Positions()
}

// Update applies a scroll offset; see Highlighter.Update.
func (n *Navigator) Update(scroll float64) (string, bool) {
	return n.hl.Update(scroll)
}

// Selected returns the selected navigation identifier, or "".
func (n *Navigator) Selected() string {
	return n.hl.Selected()
}

// ScrollTo plans the scroll triggered by clicking the entry navID while the
// page is at offset from.
func (n *Navigator) ScrollTo(navID string, from float64) (Scroll, error) {
	entry := n.tree.Find(navID)
	if entry == nil {
		return Scroll{}, fmt.Errorf("%q: %w", navID, ErrUnknownTarget)
	}
	to, ok := n.hl.Offset(navID)
	if !ok {
		return Scroll{}, fmt.Errorf("%q has no position: %w", navID, ErrUnknownTarget)
	}
	return Scroll{
		From:     from,
		To:       to,
		Duration: n.scrollDuration,
		Fragment: entry.HeadingID,
	}, nil
}
