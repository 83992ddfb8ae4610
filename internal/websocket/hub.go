package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"bi-ops-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Update is one frame pushed to a connected console. Type is "history",
// "files" or "state" for snapshots, "message" for an appended transcript
// entry; Data carries the payload.
type Update struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fanout
	rdb *redis.Client

	// Identifies this instance's own publishes on the shared channel.
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers an update to every connection of one user, then publishes to
// Redis so sibling instances reach the user's other devices.
func (h *Hub) Send(userID uuid.UUID, update Update) {
	data, _ := json.Marshal(update)

	// Channels are closed only by the unregister path, which holds the write
	// lock; sending under the read lock keeps send and close exclusive. Stale
	// clients are unregistered after release so the hub loop can take the
	// write lock.
	h.mu.RLock()
	var stale []*Client
	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": userID})
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		h.unregister <- client
	}

	if h.rdb != nil {
		payload := map[string]interface{}{
			"origin":         h.instanceID,
			"target_user_id": userID.String(),
			"message":        json.RawMessage(data),
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
	}
}

// SendDirect delivers pre-serialized frames to one local client only. Used
// for the connect-time snapshot, which must not fan out to other devices.
func (h *Hub) SendDirect(client *Client, update Update) {
	data, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	select {
	case client.Send <- data:
	default:
		h.logger.Warn("Hub", "Snapshot dropped, client buffer full", map[string]interface{}{"user_id": client.UserID})
	}
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to the shared channel and forwards frames
	// addressed to users it holds locally.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			Origin       string          `json:"origin"`
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		// Local clients were already served at publish time.
		if payload.Origin == h.instanceID {
			continue
		}

		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}

		h.mu.RLock()
		var stale []*Client
		for _, client := range h.clients[uid] {
			select {
			case client.Send <- payload.Message:
			default:
				stale = append(stale, client)
			}
		}
		h.mu.RUnlock()

		for _, client := range stale {
			h.unregister <- client
		}
	}
}
