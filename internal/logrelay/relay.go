// Package logrelay provides the ordered hand-off queue between the miner's
// output reader and the log view.
package logrelay

import "sync"

// Line is a single line of miner output plus the run that produced it.
type Line struct {
	// RunID identifies the miner launch this line came from.
	RunID string

	// Text is the line without its trailing newline.
	Text string
}

// Relay is a single-producer/single-consumer ordered queue of log lines.
// The producer is the supervisor's reader goroutine; the consumer is the UI,
// draining on its own poll cadence. Push never blocks beyond the lock, so
// the reader can always keep the child's output pipe drained.
type Relay struct {
	mu      sync.Mutex
	lines   []Line
	max     int
	dropped uint64
}

// DefaultMaxLines is the soft bound used when New is given a non-positive max.
const DefaultMaxLines = 10000

// New creates a relay holding at most max lines. When full, the oldest
// lines are dropped so the producer never stalls the child process.
func New(max int) *Relay {
	if max <= 0 {
		max = DefaultMaxLines
	}
	return &Relay{max: max}
}

// Push appends a line. At capacity it evicts the oldest line instead of
// blocking.
func (r *Relay) Push(line Line) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.lines) >= r.max {
		over := len(r.lines) - r.max + 1
		r.lines = r.lines[over:]
		r.dropped += uint64(over)
	}
	r.lines = append(r.lines, line)
}

// Drain returns all queued lines in arrival order and removes them.
// It never blocks and returns nil when nothing is queued.
func (r *Relay) Drain() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.lines) == 0 {
		return nil
	}
	out := r.lines
	r.lines = nil
	return out
}

// Len returns the number of currently queued lines.
func (r *Relay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

// Dropped returns the total number of lines evicted by the soft bound.
func (r *Relay) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
