package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yabdellah/live-cli-chat/pkg/gateway"
	"github.com/yabdellah/live-cli-chat/pkg/identity"
)

// ErrThreadNotOpen is returned by Send before the thread is bound to a chat.
var ErrThreadNotOpen = errors.New("chat: thread not open")

// Thread maintains a live ordered view of one chat's messages and sends new
// ones. An instance binds to at most one chat for its whole lifetime and
// owns exactly one gateway subscription.
type Thread struct {
	gw  gateway.Gateway
	who identity.Source
	log zerolog.Logger

	mu     sync.Mutex
	chatID string
	sub    *gateway.Subscription

	updates   chan []Message
	cancelled chan error
}

func NewThread(gw gateway.Gateway, who identity.Source, logger zerolog.Logger) *Thread {
	return &Thread{
		gw:        gw,
		who:       who,
		log:       logger.With().Str("component", "thread").Logger(),
		updates:   make(chan []Message, 16),
		cancelled: make(chan error, 1),
	}
}

// Open binds the thread to chatID and starts the snapshot stream. The first
// call wins: once bound, later calls are no-ops regardless of the id, so a
// stale caller can never leak a second subscription.
func (t *Thread) Open(ctx context.Context, chatID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.chatID != "" {
		return nil
	}

	sub, err := t.gw.Subscribe(ctx, messagesPath(chatID))
	if err != nil {
		return fmt.Errorf("open chat %s: %w", chatID, err)
	}
	t.chatID = chatID
	t.sub = sub
	go t.pump()
	return nil
}

// Updates streams the full converted message list, in storage order, on
// every upstream change.
func (t *Thread) Updates() <-chan []Message {
	return t.updates
}

// Cancelled reports a terminal loss of the subscription.
func (t *Thread) Cancelled() <-chan error {
	return t.cancelled
}

func (t *Thread) pump() {
	for {
		select {
		case snap := <-t.sub.Snapshots():
			// Recompute attribution against whoever is signed in right
			// now, not whoever was when the thread opened.
			msgs := t.convert(snap)
			select {
			case t.updates <- msgs:
			case <-t.sub.Done():
				return
			}
		case err := <-t.sub.Cancelled():
			t.log.Warn().Err(err).Str("chat_id", t.chatID).Msg("message subscription cancelled")
			t.cancelled <- err
			return
		case <-t.sub.Done():
			return
		}
	}
}

func (t *Thread) convert(snap gateway.Snapshot) []Message {
	readerID := ""
	if who, ok := t.who.Current(); ok {
		readerID = who.ID
	}

	msgs := make([]Message, 0, len(snap))
	for _, rec := range snap {
		m, err := decodeMessage(rec, readerID)
		if err != nil {
			t.log.Warn().Str("key", rec.Key).Err(err).Msg("skipping malformed message record")
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs
}

// Send writes text as a new message and reports whether a write was issued.
// Text that trims to empty is rejected without touching the gateway, and a
// failed key generation aborts before any partial write.
func (t *Thread) Send(ctx context.Context, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}

	t.mu.Lock()
	chatID := t.chatID
	t.mu.Unlock()
	if chatID == "" {
		return false, ErrThreadNotOpen
	}

	who, ok := t.who.Current()
	if !ok {
		return false, identity.ErrNotSignedIn
	}

	key, err := t.gw.GenerateKey()
	if err != nil {
		return false, fmt.Errorf("send: %w", err)
	}

	data, err := json.Marshal(Message{
		ID:         key,
		Body:       text,
		SenderID:   who.ID,
		SenderName: who.DisplayName,
		SentAt:     time.Now().UnixMilli(),
	})
	if err != nil {
		return false, fmt.Errorf("send: %w", err)
	}

	if err := t.gw.Write(ctx, messagePath(chatID, key), data); err != nil {
		return true, fmt.Errorf("send: %w", err)
	}
	return true, nil
}

// Close releases the gateway subscription. Safe to call twice or on a
// thread that was never opened.
func (t *Thread) Close() {
	t.mu.Lock()
	sub := t.sub
	t.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}
