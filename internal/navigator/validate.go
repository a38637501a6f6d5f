package navigator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docnav/internal/navtree"
)

var (
	ErrLevelJump   = errors.New("heading level skips a level")
	ErrDuplicateID = errors.New("duplicate heading identifier")
	ErrEmptyTitle  = errors.New("heading has no title")
)

// Validate reports headings that produce a surprising navigation structure.
// Build never fails on them; the returned errors are warnings, joined.
func Validate(doc *navtree.Document, opts Options) error {
	opts = opts.normalized()

	var errs []error
	seen := make(map[string]int)
	prev := opts.MinLevel
	for i, h := range doc.Headings {
		if !opts.Includes(h.Level) {
			continue
		}
		if strings.TrimSpace(h.DisplayTitle()) == "" {
			errs = append(errs, fmt.Errorf("heading %d: %w", i, ErrEmptyTitle))
		}
		if h.Level > prev+1 {
			errs = append(errs, fmt.Errorf("heading %d %q: h%d follows h%d: %w", i, h.DisplayTitle(), h.Level, prev, ErrLevelJump))
		}
		prev = h.Level

		id := HeadingID(h)
		if first, ok := seen[id]; ok {
			errs = append(errs, fmt.Errorf("heading %d: %q also used by heading %d: %w", i, id, first, ErrDuplicateID))
		} else {
			seen[id] = i
		}
	}
	return errors.Join(errs...)
}

// Warnings flattens the result of Validate into messages for API responses.
func Warnings(err error) []string {
	if err == nil {
		return []string{}
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
