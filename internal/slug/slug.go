// Package slug turns heading titles into URL-safe fragment identifiers.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a title has no characters that survive slugging.
const Fallback = "section"

// Slugify lowercases s, replaces each whitespace character with a hyphen and
// strips everything outside [a-z0-9_-]. Accented letters are folded to their
// base letter first. Slugify is idempotent.
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.TrimSpace(folded))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('-')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return Fallback
	}
	return b.String()
}

// Uniquer hands out page-unique identifiers. The first use of an identifier
// is returned unchanged; repeats get a numeric suffix.
type Uniquer struct {
	seen map[string]int
}

// NewUniquer returns an empty Uniquer.
func NewUniquer() *Uniquer {
	return &Uniquer{seen: make(map[string]int)}
}

// Unique returns id, or id-N for the first N that has not been handed out.
func (u *Uniquer) Unique(id string) string {
	n, ok := u.seen[id]
	if !ok {
		u.seen[id] = 0
		return id
	}
	for {
		n++
		candidate := id + "-" + strconv.Itoa(n)
		if _, taken := u.seen[candidate]; !taken {
			u.seen[id] = n
			u.seen[candidate] = 0
			return candidate
		}
	}
}
