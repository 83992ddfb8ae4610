package websocket

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietLogger struct{}

func (quietLogger) Debug(string, string, map[string]interface{}) {}
func (quietLogger) Info(string, string, map[string]interface{})  {}
func (quietLogger) Warn(string, string, map[string]interface{})  {}
func (quietLogger) Error(string, string, map[string]interface{}) {}
func (quietLogger) Sync() error                                  { return nil }

func newTestClient(hub *Hub, userID uuid.UUID, buffer int) *Client {
	return &Client{Hub: hub, UserID: userID, Send: make(chan []byte, buffer)}
}

func TestHubSendReachesEveryConnection(t *testing.T) {
	hub := NewHub(nil, quietLogger{})
	go hub.Run()

	userID := uuid.New()
	first := newTestClient(hub, userID, 8)
	second := newTestClient(hub, userID, 8)
	hub.register <- first
	hub.register <- second

	hub.Send(userID, Update{Type: "state", Data: map[string]int{"recordsLoaded": 5}})

	assert.JSONEq(t, `{"type":"state","data":{"recordsLoaded":5}}`, string(<-first.Send))
	assert.JSONEq(t, `{"type":"state","data":{"recordsLoaded":5}}`, string(<-second.Send))

	// Frames are scoped to the addressed user.
	other := newTestClient(hub, uuid.New(), 8)
	hub.register <- other
	hub.Send(userID, Update{Type: "message", Data: "hi"})
	select {
	case frame := <-other.Send:
		t.Fatalf("unrelated client received %s", frame)
	default:
	}
}

func TestHubSendDirectOnlyTargetsOneClient(t *testing.T) {
	hub := NewHub(nil, quietLogger{})
	go hub.Run()

	userID := uuid.New()
	target := newTestClient(hub, userID, 8)
	sibling := newTestClient(hub, userID, 8)
	hub.register <- target
	hub.register <- sibling

	hub.SendDirect(target, Update{Type: "history", Data: []string{}})

	require.Len(t, target.Send, 1)
	assert.Empty(t, sibling.Send)
}

func TestHubSendSurvivesConcurrentUnregister(t *testing.T) {
	hub := NewHub(nil, quietLogger{})
	go hub.Run()

	userID := uuid.New()

	// Tiny buffers force the stale-client path while connections churn.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		client := newTestClient(hub, userID, 1)
		hub.register <- client

		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Send(userID, Update{Type: "state", Data: j})
			}
		}()
		go func() {
			defer wg.Done()
			hub.unregister <- client
		}()
	}
	wg.Wait()

	// A send after all connections are gone is a no-op.
	hub.Send(userID, Update{Type: "state", Data: "final"})
}
