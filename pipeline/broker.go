package pipeline

import (
	"sync"
	"time"

	"github.com/ChallX/gamedex"
)

// Broker buffering and idle teardown. Streams whose consumer never shows
// up are torn down so abandoned runs do not leak channels.
const (
	streamBuffer = 64
	idleTimeout  = 10 * time.Minute
)

// Broker fans pipeline progress events out to subscribers, keyed by the
// run's correlation ID. One stream exists per run; events are ephemeral
// and never persisted.
type Broker struct {
	mu      sync.Mutex
	streams map[string]*stream
}

type stream struct {
	ch    chan gamedex.ProgressEvent
	timer *time.Timer
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{streams: make(map[string]*stream)}
}

// Subscribe returns the event channel for a correlation ID, creating the
// stream if needed. The returned cancel function tears the stream down;
// callers must invoke it when done consuming.
func (b *Broker) Subscribe(id string) (<-chan gamedex.ProgressEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.ensureLocked(id)
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return s.ch, func() { b.remove(id) }
}

// Publish delivers an event to the stream for a correlation ID, creating
// the stream if no subscriber has arrived yet. Publish never blocks; when
// the buffer is full the event is dropped, since a stalled consumer must
// not stall the pipeline.
func (b *Broker) Publish(id string, event gamedex.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.ensureLocked(id)
	select {
	case s.ch <- event:
	default:
	}
}

// Close tears down the stream for a correlation ID after the run ends.
// If a subscriber holds the channel, teardown is deferred to its cancel
// function; the idle timer covers streams nobody ever consumed.
func (b *Broker) Close(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.streams[id]
	if !ok {
		return
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(idleTimeout, func() { b.remove(id) })
	}
}

// ensureLocked returns the stream for an ID, creating it if absent.
// Must be called with mu held.
func (b *Broker) ensureLocked(id string) *stream {
	s, ok := b.streams[id]
	if !ok {
		s = &stream{ch: make(chan gamedex.ProgressEvent, streamBuffer)}
		b.streams[id] = s
	}
	return s
}

func (b *Broker) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.streams[id]; ok {
		if s.timer != nil {
			s.timer.Stop()
		}
		close(s.ch)
		delete(b.streams, id)
	}
}
