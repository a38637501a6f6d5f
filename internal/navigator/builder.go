package navigator

import (
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/dgallion1/docnav/internal/slug"
)

// Options controls how headings become navigation entries.
type Options struct {
	MinLevel  int    // Shallowest heading level included (default 2).
	MaxLevel  int    // Deepest heading level included (default 4).
	TOCPrefix string // Prefix of table-of-contents identifiers, e.g. "toc-".
	NavPrefix string // Prefix of navigation identifiers, e.g. "nav-".
	UniqueIDs bool   // Suffix repeated heading identifiers instead of reusing them.
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MinLevel:  2,
		MaxLevel:  4,
		TOCPrefix: "toc-",
		NavPrefix: "nav-",
		UniqueIDs: true,
	}
}

func (o Options) normalized() Options {
	if o.MinLevel <= 0 {
		o.MinLevel = 2
	}
	if o.MaxLevel < o.MinLevel {
		o.MaxLevel = o.MinLevel
	}
	return o
}

// Includes reports whether a heading level takes part in navigation.
func (o Options) Includes(level int) bool {
	o = o.normalized()
	return level >= o.MinLevel && level <= o.MaxLevel
}

// NavID maps a heading identifier into the navigation namespace.
func (o Options) NavID(headingID string) string {
	if o.TOCPrefix != "" && strings.HasPrefix(headingID, o.TOCPrefix) {
		return o.NavPrefix + strings.TrimPrefix(headingID, o.TOCPrefix)
	}
	return o.NavPrefix + headingID
}

// HeadingID resolves the identifier of a heading: the override if present,
// otherwise the slug of its display title.
func HeadingID(h navtree.Heading) string {
	if h.ID != "" {
		return h.ID
	}
	return slug.Slugify(h.DisplayTitle())
}

// Build turns the document's headings into a navigation tree. A heading
// nests under the nearest preceding heading with a smaller level; headings
// outside [MinLevel, MaxLevel] are ignored.
func Build(doc *navtree.Document, opts Options) *navtree.Tree {
	opts = opts.normalized()
	tree := &navtree.Tree{Title: doc.Title}

	type stackEntry struct {
		entry *navtree.NavEntry
		level int
	}
	// The root sits one level above the shallowest heading.
	root := &navtree.NavEntry{Children: []*navtree.NavEntry{}}
	stack := []stackEntry{{entry: root, level: opts.MinLevel - 1}}

	var ids *slug.Uniquer
	if opts.UniqueIDs {
		ids = slug.NewUniquer()
	}

	for _, h := range doc.Headings {
		if !opts.Includes(h.Level) {
			continue
		}

		headingID := HeadingID(h)
		if ids != nil {
			headingID = ids.Unique(headingID)
		}
		entry := &navtree.NavEntry{
			ID:        opts.NavID(headingID),
			HeadingID: headingID,
			Label:     strings.TrimSpace(h.DisplayTitle()),
			Level:     h.Level,
			Children:  []*navtree.NavEntry{},
		}

		// Ascend past equal or deeper levels; the top is then the container.
		for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].entry
		parent.Children = append(parent.Children, entry)
		stack = append(stack, stackEntry{entry: entry, level: h.Level})

		tree.Order = append(tree.Order, entry)
	}

	tree.Entries = root.Children
	return tree
}
