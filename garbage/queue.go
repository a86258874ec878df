package garbage

// Queue holds incoming attacks in arrival order
type Queue struct {
	pending []Event
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an attack; zero-row attacks are dropped
func (q *Queue) Push(e Event) {
	if e.Lines <= 0 {
		return
	}
	q.pending = append(q.pending, e)
}

// Cancel offsets attack rows against pending garbage, oldest first. Events
// fully covered are removed, the first one only partly covered is reduced
// and cancellation stops there. Returns the rows left over
func (q *Queue) Cancel(attack int) int {
	if attack <= 0 {
		return 0
	}
	kept := q.pending[:0]
	for _, e := range q.pending {
		switch {
		case attack == 0:
			kept = append(kept, e)
		case attack >= e.Lines:
			attack -= e.Lines
		default:
			e.Lines -= attack
			attack = 0
			kept = append(kept, e)
		}
	}
	clear(q.pending[len(kept):])
	q.pending = kept
	return attack
}

// DrainAll removes and returns every pending attack
func (q *Queue) DrainAll() []Event {
	out := q.pending
	q.pending = nil
	return out
}

// TotalPending sums the rows waiting in the queue
func (q *Queue) TotalPending() int {
	total := 0
	for _, e := range q.pending {
		total += e.Lines
	}
	return total
}

// Len returns the number of pending attacks
func (q *Queue) Len() int {
	return len(q.pending)
}

// Events returns a copy of the pending attacks, oldest first
func (q *Queue) Events() []Event {
	out := make([]Event, len(q.pending))
	copy(out, q.pending)
	return out
}
