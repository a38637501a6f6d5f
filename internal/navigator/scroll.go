package navigator

import (
	"math"
	"time"
)

// DefaultScrollDuration matches the usual page animation length.
const DefaultScrollDuration = 400 * time.Millisecond

// Scroll is an animated vertical scroll towards a heading. The page sets its
// location fragment to Fragment once the animation is done.
type Scroll struct {
	From     float64       `json:"from"`
	To       float64       `json:"to"`
	Duration time.Duration `json:"duration"`
	Fragment string        `json:"fragment"`
}

// At returns the scroll offset after elapsed time, using swing easing.
func (s Scroll) At(elapsed time.Duration) float64 {
	if s.Duration <= 0 || elapsed >= s.Duration {
		return s.To
	}
	if elapsed <= 0 {
		return s.From
	}
	p := float64(elapsed) / float64(s.Duration)
	eased := 0.5 - math.Cos(p*math.Pi)/2
	return s.From + (s.To-s.From)*eased
}

// Done reports whether the animation has finished.
func (s Scroll) Done(elapsed time.Duration) bool {
	return elapsed >= s.Duration
}

// Frames samples the animation every step, ending exactly on To.
func (s Scroll) Frames(step time.Duration) []float64 {
	if step <= 0 || s.Duration <= 0 {
		return []float64{s.To}
	}
	var frames []float64
	for t := step; t < s.Duration; t += step {
		frames = append(frames, s.At(t))
	}
	return append(frames, s.To)
}
