// Package sound plays key samples without blocking the capture loop.
package sound

import "sync"

// Emitter plays a sound resource. Play must return immediately; failures
// are handled by the emitter and never reported to the caller.
type Emitter interface {
	Play(ref string)
}

// Nop discards every play request.
type Nop struct{}

// Play does nothing.
func (Nop) Play(string) {}

// Recorder is an Emitter that remembers what was played, for tests and
// dry runs.
type Recorder struct {
	mu     sync.Mutex
	played []string
}

// Play records ref.
func (r *Recorder) Play(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, ref)
}

// Played returns a copy of the recorded refs in play order.
func (r *Recorder) Played() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.played))
	copy(out, r.played)
	return out
}

// Reset clears the recording.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = nil
}
