// Package render turns navigation trees into HTML and injects them into
// documentation pages.
package render

import (
	"github.com/dgallion1/docnav/internal/navtree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SelectedClass marks the entry for the heading currently in view.
const SelectedClass = "selected"

// NavNodes builds the <ul class="nav-tree"> element for a tree. The entry
// whose navigation identifier equals selected gets the selected class.
func NavNodes(tree *navtree.Tree, selected string) *html.Node {
	ul := element(atom.Ul, html.Attribute{Key: "class", Val: "nav-tree"})
	appendEntries(ul, tree.Entries, selected)
	return ul
}

func appendEntries(ul *html.Node, entries []*navtree.NavEntry, selected string) {
	for _, e := range entries {
		li := element(atom.Li)
		a := element(atom.A,
			html.Attribute{Key: "id", Val: e.ID},
			html.Attribute{Key: "href", Val: "#" + e.HeadingID},
			html.Attribute{Key: "data-target", Val: e.HeadingID},
		)
		if e.ID == selected {
			a.Attr = append(a.Attr, html.Attribute{Key: "class", Val: SelectedClass})
		}
		a.AppendChild(&html.Node{Type: html.TextNode, Data: e.Label})
		li.AppendChild(a)

		if len(e.Children) > 0 {
			sub := element(atom.Ul)
			appendEntries(sub, e.Children, selected)
			li.AppendChild(sub)
		}
		ul.AppendChild(li)
	}
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}
