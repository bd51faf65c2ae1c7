package chat

import (
	"encoding/json"
	"errors"

	"github.com/yabdellah/live-cli-chat/pkg/gateway"
)

// Message is one persisted chat message. Only objective fields are stored;
// own-message attribution is derived per reader on every delivery.
type Message struct {
	ID         string `json:"id"`
	Body       string `json:"message"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	SentAt     int64  `json:"timestamp"`

	// IsOwn is a view-local projection, recomputed against the current
	// identity each time a snapshot is delivered. Never persisted: the
	// same record is read by identities that each need a different value.
	IsOwn bool `json:"-"`
}

// Chat is one roster entry.
type Chat struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AccessCode string `json:"access_code"`
}

var errMissingName = errors.New("chat: record has no name")

const (
	chatsPath       = "chats"
	messagesSegment = "messages"
)

func chatPath(chatID string) string {
	return gateway.Join(chatsPath, chatID)
}

func messagesPath(chatID string) string {
	return gateway.Join(chatsPath, chatID, messagesSegment)
}

func messagePath(chatID, messageID string) string {
	return gateway.Join(chatsPath, chatID, messagesSegment, messageID)
}

// decodeMessage converts one snapshot child, stamping IsOwn against the
// reader's identity.
func decodeMessage(rec gateway.Record, readerID string) (Message, error) {
	var m Message
	if err := json.Unmarshal(rec.Data, &m); err != nil {
		return Message{}, err
	}
	if m.ID == "" {
		m.ID = rec.Key
	}
	m.IsOwn = m.SenderID != "" && m.SenderID == readerID
	return m, nil
}

func decodeChat(rec gateway.Record) (Chat, error) {
	var c Chat
	if err := json.Unmarshal(rec.Data, &c); err != nil {
		return Chat{}, err
	}
	if c.ID == "" {
		c.ID = rec.Key
	}
	if c.Name == "" {
		return Chat{}, errMissingName
	}
	return c, nil
}
