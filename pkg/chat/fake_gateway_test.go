package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yabdellah/live-cli-chat/pkg/gateway"
	"github.com/yabdellah/live-cli-chat/pkg/identity"
)

// fakeGateway is an in-memory Gateway with the same delivery contract as the
// redis one: full ordered snapshot per change, writer included.
type fakeGateway struct {
	mu             sync.Mutex
	nextKey        int
	keyErr         error
	writeErr       error
	holdInitial    bool
	children       map[string][]gateway.Record
	subs           map[string][]*gateway.Subscription
	writeCount     int
	subscribeCount int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		children: map[string][]gateway.Record{},
		subs:     map[string][]*gateway.Subscription{},
	}
}

func (f *fakeGateway) GenerateKey() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keyErr != nil {
		return "", f.keyErr
	}
	f.nextKey++
	return fmt.Sprintf("m%d", f.nextKey), nil
}

func splitPath(path string) (parent, key string) {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

func (f *fakeGateway) Write(_ context.Context, path string, data []byte) error {
	f.mu.Lock()
	if f.writeErr != nil {
		f.mu.Unlock()
		return f.writeErr
	}
	parent, key := splitPath(path)
	replaced := false
	for i, rec := range f.children[parent] {
		if rec.Key == key {
			f.children[parent][i].Data = data
			replaced = true
			break
		}
	}
	if !replaced {
		f.children[parent] = append(f.children[parent], gateway.Record{Key: key, Data: data})
	}
	f.writeCount++
	f.mu.Unlock()

	f.broadcast(parent)
	return nil
}

func (f *fakeGateway) Subscribe(_ context.Context, path string) (*gateway.Subscription, error) {
	sub := gateway.NewSubscription()
	f.mu.Lock()
	f.subs[path] = append(f.subs[path], sub)
	f.subscribeCount++
	hold := f.holdInitial
	f.mu.Unlock()
	if !hold {
		sub.Deliver(f.snapshotOf(path))
	}
	return sub, nil
}

func (f *fakeGateway) snapshotOf(parent string) gateway.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	src := f.children[parent]
	snap := make(gateway.Snapshot, len(src))
	copy(snap, src)
	return snap
}

func (f *fakeGateway) broadcast(parent string) {
	snap := f.snapshotOf(parent)
	f.mu.Lock()
	subs := append([]*gateway.Subscription(nil), f.subs[parent]...)
	f.mu.Unlock()
	for _, sub := range subs {
		sub.Deliver(snap)
	}
}

// pushRaw injects a record without going through Write, for malformed or
// out-of-band data.
func (f *fakeGateway) pushRaw(parent, key string, data []byte) {
	f.mu.Lock()
	f.children[parent] = append(f.children[parent], gateway.Record{Key: key, Data: data})
	f.mu.Unlock()
	f.broadcast(parent)
}

func (f *fakeGateway) cancelAll(parent string, err error) {
	f.mu.Lock()
	subs := append([]*gateway.Subscription(nil), f.subs[parent]...)
	f.mu.Unlock()
	for _, sub := range subs {
		sub.Cancel(err)
	}
}

func (f *fakeGateway) setKeyErr(err error) {
	f.mu.Lock()
	f.keyErr = err
	f.mu.Unlock()
}

func (f *fakeGateway) setWriteErr(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

func (f *fakeGateway) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeCount
}

func (f *fakeGateway) subscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribeCount
}

func (f *fakeGateway) rawData(parent, key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.children[parent] {
		if rec.Key == key {
			return rec.Data
		}
	}
	return nil
}

// fakeSource is a switchable identity source, standing in for signing in as
// somebody else between deliveries.
type fakeSource struct {
	mu  sync.Mutex
	who identity.Identity
}

func sourceFor(id, name string) *fakeSource {
	return &fakeSource{who: identity.Identity{ID: id, DisplayName: name}}
}

func (f *fakeSource) set(who identity.Identity) {
	f.mu.Lock()
	f.who = who
	f.mu.Unlock()
}

func (f *fakeSource) Current() (identity.Identity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.who, f.who.ID != ""
}
