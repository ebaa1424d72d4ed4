package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/loadlink/loadlink-backend/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Event is the payload pushed to subscribed connections. Delivery is
// at-most-once and best-effort; the persisted notification row is the only
// durable record.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Topic     string `json:"topic"`
	Origin    string `json:"origin,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Event types carried over topics.
const (
	EventStatusChanged   = "status_changed"
	EventETAUpdated      = "eta_updated"
	EventLocationUpdated = "location_updated"
	EventNotification    = "notification"
)

// UserTopic names the per-user topic a connection joins on authenticate.
func UserTopic(userID uint) string { return fmt.Sprintf("user:%d", userID) }

// LoadTopic names the per-load topic clients subscribe to explicitly.
func LoadTopic(loadID uint) string { return fmt.Sprintf("load:%d", loadID) }

// Publisher pushes events to a topic, fire-and-forget. Implementations must
// never fail the operation that triggered the publish.
type Publisher interface {
	Publish(topic, eventType string, data any)
}

// Client represents a WebSocket client
type Client struct {
	ID       uint
	UserType string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
}

type subscription struct {
	client *Client
	topic  string
}

// Hub maintains the set of active clients and their topic memberships and
// fans events out to subscribers.
type Hub struct {
	clients     map[*Client]bool
	topics      map[string]map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	mutex       sync.RWMutex
	log         *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		topics:      make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		log:         log,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.joinLocked(client, UserTopic(client.ID))
			h.mutex.Unlock()
			h.log.Info("client connected", zap.Uint("userId", client.ID), zap.String("userType", client.UserType))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				h.dropLocked(client)
			}
			h.mutex.Unlock()
			h.log.Info("client disconnected", zap.Uint("userId", client.ID))

		case sub := <-h.subscribe:
			h.mutex.Lock()
			if h.clients[sub.client] {
				h.joinLocked(sub.client, sub.topic)
			}
			h.mutex.Unlock()

		case sub := <-h.unsubscribe:
			h.mutex.Lock()
			if members, ok := h.topics[sub.topic]; ok {
				delete(members, sub.client)
				if len(members) == 0 {
					delete(h.topics, sub.topic)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// joinLocked adds client to topic. Caller holds the write lock.
func (h *Hub) joinLocked(client *Client, topic string) {
	members, ok := h.topics[topic]
	if !ok {
		members = make(map[*Client]bool)
		h.topics[topic] = members
	}
	members[client] = true
}

// dropLocked removes client from all topics and closes its send channel.
// Caller holds the write lock.
func (h *Hub) dropLocked(client *Client) {
	delete(h.clients, client)
	for topic, members := range h.topics {
		delete(members, client)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
	close(client.Send)
}

// Register attaches a client to the hub; the per-user topic is joined
// automatically.
func (h *Hub) Register(client *Client) { h.register <- client }

// Unregister detaches a client and releases its topic memberships.
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

// Subscribe joins the client to a named topic.
func (h *Hub) Subscribe(client *Client, topic string) { h.subscribe <- subscription{client, topic} }

// Unsubscribe removes the client from a named topic.
func (h *Hub) Unsubscribe(client *Client, topic string) { h.unsubscribe <- subscription{client, topic} }

// Publish fans an event out to every connection subscribed to topic. A
// subscriber whose send buffer is full misses the event; there is no replay.
func (h *Hub) Publish(topic, eventType string, data any) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Topic:     topic,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", zap.String("topic", topic), zap.Error(err))
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	metrics.EventsPublished.WithLabelValues(eventType).Inc()
	for client := range h.topics[topic] {
		select {
		case client.Send <- payload:
		default:
			h.log.Warn("send buffer full, dropping event",
				zap.Uint("userId", client.ID), zap.String("topic", topic))
		}
	}
}

// SubscriberCount returns the number of connections on a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.topics[topic])
}

// ConnectedClients returns the number of connected clients.
func (h *Hub) ConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// inboundMessage is what clients send over the socket to manage their load
// subscriptions.
type inboundMessage struct {
	Type   string `json:"type"`
	LoadID uint   `json:"loadId"`
}

// HandleWebSocket upgrades the request and runs the connection's pumps.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, userType string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("websocket upgrade", zap.Error(err))
		return
	}

	client := &Client{
		ID:       userID,
		UserType: userType,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      hub,
	}

	hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read", zap.Uint("userId", c.ID), zap.Error(err))
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.Hub.log.Warn("bad inbound message", zap.Uint("userId", c.ID), zap.Error(err))
			continue
		}

		switch msg.Type {
		case "subscribe_load":
			c.Hub.Subscribe(c, LoadTopic(msg.LoadID))
		case "unsubscribe_load":
			c.Hub.Unsubscribe(c, LoadTopic(msg.LoadID))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.Hub.log.Warn("websocket write", zap.Uint("userId", c.ID), zap.Error(err))
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// MultiPublisher forwards each publish to every underlying publisher.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(topic, eventType string, data any) {
	for _, p := range m {
		p.Publish(topic, eventType, data)
	}
}
