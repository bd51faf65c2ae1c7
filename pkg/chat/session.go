package chat

import (
	"context"
	"sync"
)

// The sessions below are the screen-facing view-state. Snapshot deliveries
// arrive on adapter goroutines at arbitrary times, so every mutation funnels
// through one update goroutine per session and readers only ever see whole
// field values. Fields update independently; cross-field consistency is not
// promised.

// ThreadSession is the chat screen's state: latest message list, input
// buffer and error line.
type ThreadSession struct {
	thread *Thread

	mu       sync.RWMutex
	messages []Message
	input    string
	errText  string

	changed chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewThreadSession(thread *Thread) *ThreadSession {
	s := &ThreadSession{
		thread:  thread,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *ThreadSession) run() {
	for {
		select {
		case msgs := <-s.thread.Updates():
			s.mu.Lock()
			s.messages = msgs
			s.mu.Unlock()
			s.notify()
		case err := <-s.thread.Cancelled():
			s.mu.Lock()
			s.errText = err.Error()
			s.mu.Unlock()
			s.notify()
			return
		case <-s.done:
			return
		}
	}
}

func (s *ThreadSession) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Changed signals that some field has a new value. Readers re-read whatever
// they render; signals collapse while unread.
func (s *ThreadSession) Changed() <-chan struct{} {
	return s.changed
}

// Messages returns the latest delivered list in storage order.
func (s *ThreadSession) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *ThreadSession) Input() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.input
}

func (s *ThreadSession) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

func (s *ThreadSession) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errText
}

// ClearError resets the error line. Local state only.
func (s *ThreadSession) ClearError() {
	s.mu.Lock()
	s.errText = ""
	s.mu.Unlock()
	s.notify()
}

// Send writes the current input buffer to the thread. The buffer clears as
// soon as a write has been issued, without waiting for confirmation; a
// rejected blank leaves it untouched. Failures land in the error line.
func (s *ThreadSession) Send(ctx context.Context) {
	s.mu.RLock()
	text := s.input
	s.mu.RUnlock()

	issued, err := s.thread.Send(ctx, text)

	s.mu.Lock()
	if issued {
		s.input = ""
	}
	if err != nil {
		s.errText = err.Error()
	}
	s.mu.Unlock()
	if issued || err != nil {
		s.notify()
	}
}

// Close stops the update loop and releases the thread's subscription.
func (s *ThreadSession) Close() {
	s.once.Do(func() { close(s.done) })
	s.thread.Close()
}

// RosterState is the roster load state machine.
type RosterState int

const (
	RosterUninitialized RosterState = iota
	RosterLoading
	RosterReady
	RosterError
)

func (s RosterState) String() string {
	switch s {
	case RosterUninitialized:
		return "uninitialized"
	case RosterLoading:
		return "loading"
	case RosterReady:
		return "ready"
	case RosterError:
		return "error"
	default:
		return "unknown"
	}
}

// RosterSession is the home screen's state: chat list, load state and the
// reported-error field for create/join failures.
type RosterSession struct {
	roster *Roster

	mu      sync.RWMutex
	state   RosterState
	chats   []Chat
	errText string

	changed chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewRosterSession(roster *Roster) *RosterSession {
	return &RosterSession{
		roster:  roster,
		state:   RosterUninitialized,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Open starts the live subscription, entering Loading until the first
// snapshot lands.
func (s *RosterSession) Open(ctx context.Context) error {
	if err := s.roster.Open(ctx); err != nil {
		s.mu.Lock()
		s.state = RosterError
		s.errText = err.Error()
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.mu.Lock()
	if s.state == RosterUninitialized {
		s.state = RosterLoading
	}
	s.mu.Unlock()
	s.notify()

	go s.run()
	return nil
}

func (s *RosterSession) run() {
	for {
		select {
		case chats := <-s.roster.Updates():
			s.mu.Lock()
			s.chats = chats
			s.state = RosterReady
			s.mu.Unlock()
			s.notify()
		case err := <-s.roster.Cancelled():
			// Terminal until a fresh session subscribes again.
			s.mu.Lock()
			s.state = RosterError
			s.errText = err.Error()
			s.mu.Unlock()
			s.notify()
			return
		case <-s.done:
			return
		}
	}
}

func (s *RosterSession) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *RosterSession) Changed() <-chan struct{} {
	return s.changed
}

func (s *RosterSession) State() RosterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Chats returns the latest delivered roster in creation order.
func (s *RosterSession) Chats() []Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Chat, len(s.chats))
	copy(out, s.chats)
	return out
}

func (s *RosterSession) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errText
}

// ClearError resets the reported error text. Purely local: a terminal Error
// state still needs a fresh subscription to recover.
func (s *RosterSession) ClearError() {
	s.mu.Lock()
	s.errText = ""
	s.mu.Unlock()
	s.notify()
}

// CreateChat forwards to the adapter and routes any failure into the error
// field. A blank name or code never reaches the gateway and mutates nothing.
func (s *RosterSession) CreateChat(ctx context.Context, name, code string) {
	s.report(s.roster.CreateChat(ctx, name, code))
}

// JoinChat mirrors CreateChat; see Roster.JoinChat for the semantics.
func (s *RosterSession) JoinChat(ctx context.Context, name, code string) {
	s.report(s.roster.JoinChat(ctx, name, code))
}

func (s *RosterSession) report(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.errText = err.Error()
	s.mu.Unlock()
	s.notify()
}

// Close stops the update loop and releases the roster's subscription.
func (s *RosterSession) Close() {
	s.once.Do(func() { close(s.done) })
	s.roster.Close()
}
