package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/noteshare/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test client for the public notes feed
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient connects to the feed and waits until the hub has registered it
func NewWSClient(t *testing.T, ts *TestServer) *WSClient {
	t.Helper()

	before := ts.Hub.ClientCount()

	dialer := gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(ts.FeedURL(), nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	deadline := time.Now().Add(2 * time.Second)
	for ts.Hub.ClientCount() <= before {
		if time.Now().After(deadline) {
			t.Fatal("feed client was never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	return client
}

// readPump reads messages from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			default:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// ExpectMessage waits for a message of the specified type
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectNote waits for a NOTE_PUBLISHED or NOTE_UPDATED message and decodes it
func (c *WSClient) ExpectNote(msgType websocket.MessageType, timeout time.Duration) *websocket.NotePayload {
	c.t.Helper()

	msg := c.ExpectMessage(msgType, timeout)

	var payload websocket.NotePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode note payload: %v", err)
	}
	return &payload
}

// ExpectRemoved waits for a NOTE_REMOVED message and decodes it
func (c *WSClient) ExpectRemoved(timeout time.Duration) *websocket.NoteRemovedPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeNoteRemoved, timeout)

	var payload websocket.NoteRemovedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode removed payload: %v", err)
	}
	return &payload
}

// ExpectNoMessage verifies no messages are received within timeout
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg != nil {
			c.t.Fatalf("unexpected message received: %s %s", msg.Type, string(msg.Payload))
		}
	case <-time.After(timeout):
	}
}
