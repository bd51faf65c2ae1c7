package gateway

import "sync"

// Subscription is a live snapshot stream for one path. Each instance is
// owned by exactly one subscriber, which must call Close before discarding
// it. Snapshots are delivered in upstream order and are never dropped,
// batched or reordered.
type Subscription struct {
	snapshots chan Snapshot
	cancelled chan error
	done      chan struct{}
	once      sync.Once
}

// NewSubscription creates an open subscription handle. Gateway
// implementations feed it via Deliver and Cancel.
func NewSubscription() *Subscription {
	return &Subscription{
		snapshots: make(chan Snapshot, 16),
		cancelled: make(chan error, 1),
		done:      make(chan struct{}),
	}
}

// Snapshots streams the full ordered child list on every upstream change.
func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.snapshots
}

// Cancelled reports a terminal revocation of the subscription. At most one
// error is ever delivered.
func (s *Subscription) Cancelled() <-chan error {
	return s.cancelled
}

// Done is closed once the subscription ends, by Close or Cancel.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Deliver hands a snapshot to the subscriber, blocking if it is slow.
// It reports false once the subscription has ended.
func (s *Subscription) Deliver(snap Snapshot) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.snapshots <- snap:
		return true
	case <-s.done:
		return false
	}
}

// Cancel ends the subscription with a terminal reason.
func (s *Subscription) Cancel(err error) {
	s.once.Do(func() {
		s.cancelled <- err
		close(s.done)
	})
}

// Close ends the subscription. Safe to call twice or on a subscription that
// was already cancelled.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}
