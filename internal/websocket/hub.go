package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dom/noteshare/internal/domain"
	"github.com/google/uuid"
)

const broadcastBuffer = 256

// Hub fans public note changes out to every connected feed client. Run owns
// the client set; everything else talks to it through channels.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.stopped {
				client.Close()
			} else {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.trySend(data) {
					// Too slow to keep up; drop it rather than stall the feed.
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts the hub down and closes every client. It blocks until Run has
// returned.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NotePublished announces a note that became visible to everyone. Private
// notes are ignored.
func (h *Hub) NotePublished(note *domain.NoteView) {
	if note == nil || !note.IsPublic() {
		return
	}
	h.publish(MessageTypeNotePublished, NotePayload{Note: note})
}

func (h *Hub) NoteUpdated(note *domain.NoteView) {
	if note == nil || !note.IsPublic() {
		return
	}
	h.publish(MessageTypeNoteUpdated, NotePayload{Note: note})
}

func (h *Hub) NoteRemoved(id uuid.UUID) {
	h.publish(MessageTypeNoteRemoved, NoteRemovedPayload{ID: id})
}

func (h *Hub) publish(msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		slog.Error("failed to build feed message", "op", "hub.publish", "type", msgType, "error", err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal feed message", "op", "hub.publish", "type", msgType, "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		slog.Warn("feed buffer full, dropping message", "op", "hub.publish", "type", msgType)
	}
}
