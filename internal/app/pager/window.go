package pager

import "time"

// Window is the closed interval [Start, End]. An item stamped exactly at
// Start is inside the window.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window of length d ending at now.
func NewWindow(now time.Time, d time.Duration) Window {
	return Window{Start: now.Add(-d), End: now}
}

// Contains reports whether t lies in [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowOptions builds options that keep only items inside w and stop once the
// last item of a page is older than w.Start.
//
// The early stop relies on the server returning items newest first. If a
// resource is not reverse-chronological the walk ends early and silently
// misses older in-window items.
func WindowOptions[T any](resource string, maxPages int, w Window, stamp func(T) time.Time) Options[T] {
	return Options[T]{
		Resource: resource,
		MaxPages: maxPages,
		Keep: func(item T) bool {
			return w.Contains(stamp(item))
		},
		StopAfter: func(items []T) bool {
			return len(items) > 0 && stamp(items[len(items)-1]).Before(w.Start)
		},
	}
}
