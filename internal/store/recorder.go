package store

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// DefaultRecorderBuffer is the number of pending events a Recorder holds
// before it starts dropping.
const DefaultRecorderBuffer = 256

// Recorder writes note events on a background goroutine so the caller
// never waits on the database.
type Recorder struct {
	notes     *NoteRepository
	sessionID string

	events  chan NoteEvent
	dropped atomic.Int64
	written atomic.Int64
	wg      sync.WaitGroup
	once    sync.Once
}

// NewRecorder starts a recorder for the given session.
func NewRecorder(notes *NoteRepository, sessionID string, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = DefaultRecorderBuffer
	}
	r := &Recorder{
		notes:     notes,
		sessionID: sessionID,
		events:    make(chan NoteEvent, buffer),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record queues an event. When the buffer is full the event is dropped.
// Record must not be called after Close.
func (r *Recorder) Record(n NoteEvent) {
	n.SessionID = r.sessionID
	select {
	case r.events <- n:
	default:
		r.dropped.Add(1)
	}
}

// Close flushes pending events and stops the writer.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.events)
		r.wg.Wait()
	})
}

// SessionID returns the session the recorder writes to.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Dropped returns the number of events discarded because the buffer was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Written returns the number of events stored.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for n := range r.events {
		if err := r.notes.Create(&n); err != nil {
			log.Warn().Err(err).Str("key", n.KeyID).Msg("Failed to record note")
			continue
		}
		r.written.Add(1)
	}
}
