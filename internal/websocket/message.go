package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/noteshare/internal/domain"
	"github.com/google/uuid"
)

type MessageType string

const (
	// Server to Client
	MessageTypeNotePublished MessageType = "NOTE_PUBLISHED"
	MessageTypeNoteUpdated   MessageType = "NOTE_UPDATED"
	MessageTypeNoteRemoved   MessageType = "NOTE_REMOVED"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type NotePayload struct {
	Note *domain.NoteView `json:"note"`
}

// NoteRemovedPayload carries only the id. It is sent both for deleted notes
// and for notes that became private.
type NoteRemovedPayload struct {
	ID uuid.UUID `json:"id"`
}
