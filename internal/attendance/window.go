package attendance

import (
	"context"
	"fmt"
	"time"
)

// Window is a local time-of-day interval during which attendance marking is
// meaningful, e.g. 09:00-16:00. Start is inclusive, end exclusive.
type Window struct {
	startMin int // minutes after midnight
	endMin   int
}

// ParseWindow parses "HH:MM-HH:MM".
func ParseWindow(s string) (Window, error) {
	var sh, sm, eh, em int
	if _, err := fmt.Sscanf(s, "%d:%d-%d:%d", &sh, &sm, &eh, &em); err != nil {
		return Window{}, fmt.Errorf("invalid window %q: %w", s, err)
	}
	w := Window{startMin: sh*60 + sm, endMin: eh*60 + em}
	if sh < 0 || sh > 23 || eh < 0 || eh > 23 || sm < 0 || sm > 59 || em < 0 || em > 59 || w.startMin >= w.endMin {
		return Window{}, fmt.Errorf("invalid window %q", s)
	}
	return w, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	min := t.Hour()*60 + t.Minute()
	return min >= w.startMin && min < w.endMin
}

// Bounds returns the window's open and close instants for t's calendar day.
func (w Window) Bounds(t time.Time) (open, close time.Time) {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.Add(time.Duration(w.startMin) * time.Minute),
		midnight.Add(time.Duration(w.endMin) * time.Minute)
}

// String renders the window back to HH:MM-HH:MM form.
func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.startMin/60, w.startMin%60, w.endMin/60, w.endMin%60)
}

// Watch re-evaluates the window every interval and emits the open/closed
// state whenever it changes. The current state is emitted immediately.
// Intervals above one minute are clamped so transitions are never missed
// for longer than that.
func (w Window) Watch(ctx context.Context, interval time.Duration) <-chan bool {
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	out := make(chan bool, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := w.Contains(time.Now())
		out <- last
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if open := w.Contains(now); open != last {
					last = open
					select {
					case out <- open:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out
}
