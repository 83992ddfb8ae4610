package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a websocket connection to the hub. The snapshot frames
// are queued before the pumps start, so the client sees the current history
// and file map immediately, then live updates.
func ServeWs(hub *Hub, c *websocket.Conn, userID uuid.UUID, snapshot []Update) {
	client := &Client{Hub: hub, Conn: c, UserID: userID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	for _, update := range snapshot {
		hub.SendDirect(client, update)
	}

	go client.writePump()
	client.readPump() // runs in the handler goroutine
}
