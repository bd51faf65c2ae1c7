package gateway

import (
	"context"
	"errors"
	"strings"
)

// Record is one child stored under a path, exactly as persisted.
type Record struct {
	Key  string
	Data []byte
}

// Snapshot is the full ordered set of children under a subscribed path,
// oldest first. Child order is insertion order at the storage path; it is
// never re-sorted locally.
type Snapshot []Record

var (
	// ErrKeyGeneration is returned when a new unique key could not be
	// obtained. No write may happen without a key.
	ErrKeyGeneration = errors.New("gateway: key generation failed")

	// ErrSubscriptionLost signals that the backend revoked a live
	// subscription. Terminal: recovery needs a fresh Subscribe call.
	ErrSubscriptionLost = errors.New("gateway: subscription cancelled by backend")
)

// Gateway is the push-based key/value store the sync adapters write to and
// subscribe on. Implementations own storage, transport and fan-out.
type Gateway interface {
	// GenerateKey returns a new unique child key.
	GenerateKey() (string, error)

	// Write stores data at path and notifies every subscriber of the
	// parent path, including the writer's own subscriptions.
	Write(ctx context.Context, path string, data []byte) error

	// Subscribe starts streaming snapshots of the children under path.
	// The first snapshot reflects current state and is delivered without
	// waiting for a change.
	Subscribe(ctx context.Context, path string) (*Subscription, error)
}

// Join builds a slash-separated storage path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

func parentOf(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

func lastSegment(path string) string {
	i := strings.LastIndexByte(path, '/')
	return path[i+1:]
}
