// Package progress fans out upload progress notifications to interested
// consumers. Uploads and progress watchers arrive as two separate requests
// (browsers cannot duplex a request body with a streamed response), so the
// broker keeps per-upload state keyed by an upload ID the transport derives
// from the principal and file name.
package progress

import (
	"sync"

	"labelpress/internal/constants"
	"labelpress/internal/upload"
)

// subscription wraps a channel with safe closure tracking so a concurrent
// unsubscribe/notify can never panic on a closed channel.
type subscription struct {
	ch     chan upload.Progress
	mu     sync.Mutex
	closed bool
}

// trySend delivers an event without blocking. A full or closed channel
// drops the event — a slow watcher must never stall the persister.
func (s *subscription) trySend(p upload.Progress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- p:
		return true
	default:
		return false
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// entry tracks one in-flight upload: its latest progress and its watchers.
type entry struct {
	last upload.Progress
	subs map[*subscription]struct{}
}

// Broker is a thread-safe progress pub/sub hub.
type Broker struct {
	mu      sync.RWMutex
	uploads map[string]*entry
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{uploads: make(map[string]*entry)}
}

// Publish records the latest progress for an upload and notifies watchers.
// Delivery is best-effort and never blocks.
func (b *Broker) Publish(id string, p upload.Progress) {
	b.mu.Lock()
	e, ok := b.uploads[id]
	if !ok {
		e = &entry{subs: make(map[*subscription]struct{})}
		b.uploads[id] = e
	}
	e.last = p
	subs := make([]*subscription, 0, len(e.subs))
	for s := range e.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.trySend(p)
	}
}

// Subscribe returns a channel of progress events for an upload and a cancel
// function. A watcher that subscribes mid-upload immediately receives the
// latest known progress so its first render is current.
func (b *Broker) Subscribe(id string) (<-chan upload.Progress, func()) {
	sub := &subscription{ch: make(chan upload.Progress, constants.ProgressBufferSize)}

	b.mu.Lock()
	e, ok := b.uploads[id]
	if !ok {
		e = &entry{subs: make(map[*subscription]struct{})}
		b.uploads[id] = e
	}
	e.subs[sub] = struct{}{}
	last := e.last
	b.mu.Unlock()

	if last.BytesWritten > 0 {
		sub.trySend(last)
	}

	cancel := func() {
		b.mu.Lock()
		if e, ok := b.uploads[id]; ok {
			delete(e.subs, sub)
		}
		b.mu.Unlock()
		sub.close()
	}
	return sub.ch, cancel
}

// Finish closes all watcher channels for an upload and forgets it. Called
// by the transport once the upload completes or fails.
func (b *Broker) Finish(id string) {
	b.mu.Lock()
	e, ok := b.uploads[id]
	if ok {
		delete(b.uploads, id)
	}
	b.mu.Unlock()

	if !ok {
		return
	}
	for s := range e.subs {
		s.close()
	}
}

// uploadSink adapts one upload ID to the persister's sink capability.
type uploadSink struct {
	broker *Broker
	id     string
}

func (s *uploadSink) Publish(p upload.Progress) {
	s.broker.Publish(s.id, p)
}

// UploadSink returns a persister-facing sink bound to an upload ID.
func (b *Broker) UploadSink(id string) upload.ProgressSink {
	return &uploadSink{broker: b, id: id}
}
