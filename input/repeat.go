package input

import "time"

// Auto-repeat timing. Terminals report no key release, so a held key is
// assumed released once its repeat events stop arriving
const (
	RepeatDelay    = 167 * time.Millisecond
	RepeatInterval = 33 * time.Millisecond
	RepeatRelease  = 100 * time.Millisecond
)

// Repeater tracks one held horizontal direction
type Repeater struct {
	dir       int // -1 left, 1 right, 0 idle
	charged   bool
	start     time.Time
	lastMove  time.Time
	lastEvent time.Time
}

// Press registers a key event for dir. Returns true for a fresh press, which
// the caller answers with one immediate shift; repeats of the held direction
// only refresh the release timer
func (r *Repeater) Press(dir int, now time.Time) bool {
	if r.dir == dir && dir != 0 {
		r.lastEvent = now
		return false
	}
	*r = Repeater{dir: dir, start: now, lastMove: now, lastEvent: now}
	return true
}

// Release drops the held direction
func (r *Repeater) Release() {
	*r = Repeater{}
}

// Direction returns the held direction, 0 when idle
func (r *Repeater) Direction() int { return r.dir }

// Charged reports whether the delay has elapsed for the held direction
func (r *Repeater) Charged() bool { return r.dir != 0 && r.charged }

// Update advances the repeater and returns the direction to shift by now, or
// 0. Shifts are only produced while canMove holds; the release timer runs
// regardless
func (r *Repeater) Update(now time.Time, canMove bool) int {
	if r.dir == 0 {
		return 0
	}
	if now.Sub(r.lastEvent) >= RepeatRelease {
		r.Release()
		return 0
	}
	if !canMove {
		return 0
	}
	if !r.charged {
		if now.Sub(r.start) >= RepeatDelay {
			r.charged = true
			r.lastMove = now
			return r.dir
		}
		return 0
	}
	if now.Sub(r.lastMove) >= RepeatInterval {
		r.lastMove = now
		return r.dir
	}
	return 0
}

// Rearm restarts the repeat interval, used after a wall shift on spawn
func (r *Repeater) Rearm(now time.Time) {
	r.lastMove = now
}

// NextWake returns the time until the repeater next needs attention
func (r *Repeater) NextWake(now time.Time) (time.Duration, bool) {
	if r.dir == 0 {
		return 0, false
	}
	wait := RepeatRelease - now.Sub(r.lastEvent)
	if r.charged {
		wait = min(wait, RepeatInterval-now.Sub(r.lastMove))
	} else {
		wait = min(wait, RepeatDelay-now.Sub(r.start))
	}
	return max(wait, 0), true
}
