package navigator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/google/go-cmp/cmp"
)

func abcPositions() []navtree.HeaderPosition {
	return []navtree.HeaderPosition{
		{NavID: "a", Offset: 0},
		{NavID: "b", Offset: 100},
		{NavID: "c", Offset: 300},
	}
}

func TestHighlighter_Update(t *testing.T) {
	tests := []struct {
		scroll float64
		want   string
	}{
		{150, "b"},
		{0, "a"},
		{-10, ""},
		{100, "b"},
		{299.5, "b"},
		{300, "c"},
		{10000, "c"},
	}
	for _, tt := range tests {
		var h Highlighter
		h.Reset(abcPositions())
		got, _ := h.Update(tt.scroll)
		if got != tt.want {
			t.Errorf("scroll %v: expected %q, got %q", tt.scroll, tt.want, got)
		}
		if h.Selected() != tt.want {
			t.Errorf("scroll %v: Selected() = %q, want %q", tt.scroll, h.Selected(), tt.want)
		}
	}
}

func TestHighlighter_ChangeReporting(t *testing.T) {
	var h Highlighter
	h.Reset(abcPositions())

	steps := []struct {
		scroll  float64
		sel     string
		changed bool
	}{
		{-5, "", false},
		{50, "a", true},
		{60, "a", false},
		{120, "b", true},
		{-1, "", true},
	}
	for i, s := range steps {
		sel, changed := h.Update(s.scroll)
		if sel != s.sel || changed != s.changed {
			t.Errorf("step %d: expected (%q, %v), got (%q, %v)", i, s.sel, s.changed, sel, changed)
		}
	}
}

func TestHighlighter_EmptyCache(t *testing.T) {
	var h Highlighter
	if sel, changed := h.Update(500); sel != "" || changed {
		t.Errorf("expected no selection, got (%q, %v)", sel, changed)
	}
}

func TestHighlighter_ResetCopiesInput(t *testing.T) {
	var h Highlighter
	in := abcPositions()
	h.Reset(in)
	in[0].Offset = 9999

	if got := h.Positions()[0].Offset; got != 0 {
		t.Errorf("cache was mutated through caller slice: offset %v", got)
	}
}

func buildABC() *navtree.Tree {
	doc := &navtree.Document{Headings: []navtree.Heading{
		{Level: 2, Text: "A"},
		{Level: 3, Text: "B"},
		{Level: 2, Text: "C"},
	}}
	return Build(doc, DefaultOptions())
}

func TestNavigator_RebuildMatchesLayout(t *testing.T) {
	nav := New(buildABC(), 0)

	n := nav.Rebuild(OffsetMap{"a": 0, "b": 100, "c": 300})
	if n != 3 {
		t.Fatalf("expected 3 positions, got %d", n)
	}
	if sel, _ := nav.Update(150); sel != "nav-b" {
		t.Errorf("expected nav-b, got %q", sel)
	}

	// Layout changes, e.g. after a resize reflows the page.
	relaid := OffsetMap{"a": 0, "b": 180, "c": 520}
	nav.Rebuild(relaid)
	want := []navtree.HeaderPosition{
		{NavID: "nav-a", Offset: 0},
		{NavID: "nav-b", Offset: 180},
		{NavID: "nav-c", Offset: 520},
	}
	if diff := cmp.Diff(want, nav.Positions()); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if sel, _ := nav.Update(150); sel != "nav-a" {
		t.Errorf("expected nav-a after relayout, got %q", sel)
	}
}

func TestNavigator_RebuildSkipsMissing(t *testing.T) {
	nav := New(buildABC(), 0)
	if n := nav.Rebuild(OffsetMap{"a": 0, "c": 300}); n != 2 {
		t.Fatalf("expected 2 positions, got %d", n)
	}
	if sel, _ := nav.Update(150); sel != "nav-a" {
		t.Errorf("expected nav-a, got %q", sel)
	}
}

func TestNavigator_ScrollTo(t *testing.T) {
	nav := New(buildABC(), 200*time.Millisecond)
	nav.Rebuild(OffsetMap{"a": 0, "b": 100, "c": 300})

	s, err := nav.ScrollTo("nav-c", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.From != 50 || s.To != 300 || s.Fragment != "c" || s.Duration != 200*time.Millisecond {
		t.Errorf("unexpected scroll plan: %+v", s)
	}

	if _, err := nav.ScrollTo("nav-missing", 0); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("expected ErrUnknownTarget, got %v", err)
	}

	nav.Rebuild(OffsetMap{"a": 0})
	if _, err := nav.ScrollTo("nav-b", 0); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("expected ErrUnknownTarget for entry without position, got %v", err)
	}
}

func TestNavigator_DefaultScrollDuration(t *testing.T) {
	nav := New(buildABC(), 0)
	nav.Rebuild(OffsetMap{"a": 0})
	s, err := nav.ScrollTo("nav-a", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Duration != DefaultScrollDuration {
		t.Errorf("expected %v, got %v", DefaultScrollDuration, s.Duration)
	}
}

func TestScroll_Easing(t *testing.T) {
	s := Scroll{From: 0, To: 100, Duration: 400 * time.Millisecond}

	if got := s.At(0); got != 0 {
		t.Errorf("At(0) = %v, want 0", got)
	}
	if got := s.At(200 * time.Millisecond); math.Abs(got-50) > 1e-9 {
		t.Errorf("At(half) = %v, want 50", got)
	}
	if got := s.At(time.Second); got != 100 {
		t.Errorf("At(past end) = %v, want 100", got)
	}
	if s.Done(399 * time.Millisecond) {
		t.Error("expected animation still running")
	}
	if !s.Done(400 * time.Millisecond) {
		t.Error("expected animation done")
	}

	frames := s.Frames(100 * time.Millisecond)
	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d: %v", len(frames), frames)
	}
	for i := 1; i < len(frames); i++ {
		if frames[i] < frames[i-1] {
			t.Errorf("frames not monotonic: %v", frames)
		}
	}
	if frames[len(frames)-1] != 100 {
		t.Errorf("last frame = %v, want 100", frames[len(frames)-1])
	}
}
