// Package notifier implements a one-shot, fan-out, acknowledged notification
// primitive used to drain in-flight connections during graceful shutdown.
//
// A set of live subscribers is guarded by a mutex, each with its own
// buffered channel, mirroring a typical register/unregister/broadcast hub
// shape. Delivery here is a single one-shot broadcast rather than an
// unbounded stream: every subscriber live at Send time must eventually
// either acknowledge the notification or release its subscription without
// having observed one, and a sync.WaitGroup tracks that — Subscribe adds
// one, and the subscriber's terminal call (Close or Acknowledge) marks it
// done exactly once. Because a Notifier is used once per drain cycle — no
// new subscriptions are taken once the listener has stopped accepting and
// Send has been called — a WaitGroup is sufficient to express "wait for
// everyone who was here to finish."
package notifier

import (
	"errors"
	"sync"
)

// Notification is the payload broadcast to subscribers. Shutdown is the
// only value sent today; the type exists so additional notifications can
// be added without changing the primitive's shape.
type Notification int

// Shutdown is sent once, to every live subscriber, when a Server stops
// accepting new connections.
const Shutdown Notification = iota

// ErrNoSubscribers is returned by Send when there are no live subscribers to
// deliver to. The caller must treat this as "nothing to drain", not a
// failure.
var ErrNoSubscribers = errors.New("notifier: no subscribers")

// Notifier is a one-shot broadcast-with-acknowledgement primitive. Construct
// one per Server instance; it is not meant to be reused across multiple
// shutdown cycles.
type Notifier struct {
	mu    sync.Mutex
	subs  map[uint64]chan Notification
	nextID uint64
	wg    sync.WaitGroup
}

// New creates an empty Notifier.
func New() *Notifier {
	return &Notifier{subs: make(map[uint64]chan Notification)}
}

// Subscription is a single subscriber's handle on a Notifier. It must be
// released exactly once, by calling either Close (the subscriber finished
// without observing a notification) or Acknowledge (the subscriber observed
// Shutdown and is exiting in response to it).
type Subscription struct {
	n        *Notifier
	id       uint64
	ch       chan Notification
	released bool
	mu       sync.Mutex
}

// Subscribe registers a new subscriber and returns its handle. Safe to call
// concurrently with Send, but in practice it is only ever called from a
// single-threaded accept loop.
func (n *Notifier) Subscribe() *Subscription {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	ch := make(chan Notification, 1)
	n.subs[id] = ch
	n.mu.Unlock()

	n.wg.Add(1)
	return &Subscription{n: n, id: id, ch: ch}
}

// SubscriberCount returns the number of currently live subscriptions.
func (n *Notifier) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Send delivers notification n to every currently-subscribed Subscription
// and returns the number of subscribers it was delivered to. Returns
// ErrNoSubscribers if there were none — callers must treat that as "nothing
// to drain".
func (n *Notifier) Send(notification Notification) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.subs) == 0 {
		return 0, ErrNoSubscribers
	}

	count := 0
	for _, ch := range n.subs {
		select {
		case ch <- notification:
		default:
			// Capacity-1 channel already holds an unread notification;
			// one-shot delivery means this can't happen in practice, but
			// skip rather than block.
		}
		count++
	}
	return count, nil
}

// CollectAcknowledgements blocks until every subscriber that was live when
// Send was called has either acknowledged or closed without observing the
// notification. It consumes the Notifier; call it at most once.
func (n *Notifier) CollectAcknowledgements() {
	n.wg.Wait()
}

// Poll performs a non-blocking check for a pending notification. Subscribers
// call this between requests rather than awaiting it, so a shutdown check
// never races against in-flight HTTP I/O.
func (s *Subscription) Poll() (Notification, bool) {
	select {
	case n := <-s.ch:
		return n, true
	default:
		return 0, false
	}
}

// Acknowledge marks this subscription as having observed and responded to a
// notification, then releases it. Call this, and only this, when Poll
// reported Shutdown. Idempotent.
func (s *Subscription) Acknowledge() {
	s.release()
}

// Close releases this subscription without acknowledging anything. Call
// this when the subscriber's work finishes without ever observing a
// notification (the common non-shutdown path). Idempotent.
func (s *Subscription) Close() {
	s.release()
}

func (s *Subscription) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true

	s.n.mu.Lock()
	delete(s.n.subs, s.id)
	s.n.mu.Unlock()

	s.n.wg.Done()
}
