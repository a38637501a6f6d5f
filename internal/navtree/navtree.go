package navtree

// Document is the heading outline extracted from a rendered page.
type Document struct {
	Title    string    // Document title (from metadata or filename)
	Headings []Heading // Headings in document order
}

// Heading is a titled section marker. Title and ID are optional overrides;
// when empty the title comes from Text and the ID from its slug.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
	ID    string `json:"id,omitempty"`
}

// DisplayTitle returns the override title if set, otherwise the text content.
func (h Heading) DisplayTitle() string {
	if h.Title != "" {
		return h.Title
	}
	return h.Text
}

// NavEntry mirrors one heading in the navigation tree.
type NavEntry struct {
	ID        string      `json:"id"`         // Navigation identifier, e.g. "nav-install"
	HeadingID string      `json:"heading_id"` // Identifier of the heading it points at
	Label     string      `json:"label"`
	Level     int         `json:"level"`
	Children  []*NavEntry `json:"children"`
}

// Tree is the navigation built for one document.
type Tree struct {
	Title   string      `json:"title"`
	Entries []*NavEntry `json:"entries"`

	// Order lists every entry in document order. It is the order in which
	// headings were read and the order the position cache is built in.
	Order []*NavEntry `json:"-"`
}

// Find returns the entry with the given navigation identifier.
func (t *Tree) Find(navID string) *NavEntry {
	for _, e := range t.Order {
		if e.ID == navID {
			return e
		}
	}
	return nil
}

// HeaderPosition is a cached (navigation identifier, top offset) pair.
type HeaderPosition struct {
	NavID  string  `json:"nav_id"`
	Offset float64 `json:"offset"`
}
