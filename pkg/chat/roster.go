package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yabdellah/live-cli-chat/pkg/gateway"
)

// Roster maintains a live ordered view of all chats and supports create and
// join. Like Thread, an instance owns at most one subscription.
type Roster struct {
	gw  gateway.Gateway
	log zerolog.Logger

	mu  sync.Mutex
	sub *gateway.Subscription

	updates   chan []Chat
	cancelled chan error
}

func NewRoster(gw gateway.Gateway, logger zerolog.Logger) *Roster {
	return &Roster{
		gw:        gw,
		log:       logger.With().Str("component", "roster").Logger(),
		updates:   make(chan []Chat, 16),
		cancelled: make(chan error, 1),
	}
}

// Open starts the live roster subscription. Only the first call subscribes.
func (r *Roster) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return nil
	}

	sub, err := r.gw.Subscribe(ctx, chatsPath)
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	r.sub = sub
	go r.pump()
	return nil
}

// Updates streams the full chat list, in creation order, on every change.
func (r *Roster) Updates() <-chan []Chat {
	return r.updates
}

// Cancelled reports a terminal loss of the subscription.
func (r *Roster) Cancelled() <-chan error {
	return r.cancelled
}

func (r *Roster) pump() {
	for {
		select {
		case snap := <-r.sub.Snapshots():
			chats := make([]Chat, 0, len(snap))
			for _, rec := range snap {
				c, err := decodeChat(rec)
				if err != nil {
					r.log.Warn().Str("key", rec.Key).Err(err).Msg("skipping malformed chat record")
					continue
				}
				chats = append(chats, c)
			}
			select {
			case r.updates <- chats:
			case <-r.sub.Done():
				return
			}
		case err := <-r.sub.Cancelled():
			r.log.Warn().Err(err).Msg("roster subscription cancelled")
			r.cancelled <- err
			return
		case <-r.sub.Done():
			return
		}
	}
}

// CreateChat writes a new chat record. Blank name or code is a no-op: the
// UI disables submission, this is just the defensive re-check.
func (r *Roster) CreateChat(ctx context.Context, name, code string) error {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" || code == "" {
		return nil
	}

	key, err := r.gw.GenerateKey()
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	data, err := json.Marshal(Chat{ID: key, Name: name, AccessCode: code})
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	if err := r.gw.Write(ctx, chatPath(key), data); err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

// JoinChat currently performs the same write as CreateChat: no access-code
// lookup exists upstream, so joining materialises the chat the caller
// described. Routed through CreateChat so a future lookup has one seam.
func (r *Roster) JoinChat(ctx context.Context, name, code string) error {
	return r.CreateChat(ctx, name, code)
}

// Close releases the gateway subscription. Idempotent, safe before Open.
func (r *Roster) Close() {
	r.mu.Lock()
	sub := r.sub
	r.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}
