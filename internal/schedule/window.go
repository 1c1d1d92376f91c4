// Package schedule plans per-trial frame windows and walks the frame clock.
package schedule

import "fmt"

// Window is a half-open frame range [Start,End).
type Window struct {
	Start int
	End   int
}

// Contains reports whether frame lies inside the window.
func (w Window) Contains(frame int) bool {
	return frame >= w.Start && frame < w.End
}

// Len returns the number of frames in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// Within reports whether w lies fully inside outer.
func (w Window) Within(outer Window) bool {
	return w.Start >= outer.Start && w.End <= outer.End
}

// Expand widens the window by n frames on both sides.
func (w Window) Expand(n int) Window {
	return Window{Start: w.Start - n, End: w.End + n}
}

// Check validates 0 <= Start < End <= total.
func (w Window) Check(total int) error {
	if w.Start < 0 || w.Start >= w.End || w.End > total {
		return fmt.Errorf("window [%d,%d) outside [0,%d)", w.Start, w.End, total)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("[%d,%d)", w.Start, w.End)
}
