package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// EventClientCount is broadcast whenever the connection count changes.
const EventClientCount = "client-count"

// MessageHandler receives every inbound event from every connection.
type MessageHandler func(connectionID, event string, data json.RawMessage)

// Hub is the connection registry: it tracks connected clients, fans events
// out to them and reports the count. Delivery is best-effort; a client whose
// send buffer is full misses the message rather than stalling the rest.
type Hub struct {
	mu           sync.RWMutex
	clients      map[string]*Client
	logger       *zap.Logger
	handler      MessageHandler
	onConnect    []func(connectionID string)
	onDisconnect []func(connectionID string)
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// SetMessageHandler installs the dispatch target for inbound events. Must be
// called before the first connection is served.
func (h *Hub) SetMessageHandler(fn MessageHandler) {
	h.handler = fn
}

// OnConnect registers a callback run synchronously after a client is added,
// before any of its events are read. Used for late-joiner state sync.
func (h *Hub) OnConnect(fn func(connectionID string)) {
	h.onConnect = append(h.onConnect, fn)
}

// OnDisconnect registers a callback run after a client is removed.
func (h *Hub) OnDisconnect(fn func(connectionID string)) {
	h.onDisconnect = append(h.onDisconnect, fn)
}

// Register adds a client, announces the new count and runs the connect
// callbacks. Callbacks run outside the hub lock so they can send through it.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client connected", zap.String("connection_id", c.ID), zap.Int("clients", count))
	h.Broadcast(EventClientCount, count)
	for _, fn := range h.onConnect {
		fn(c.ID)
	}
}

// Unregister removes a client, runs the disconnect callbacks and announces
// the new count. Safe to call more than once for the same client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c.ID]
	delete(h.clients, c.ID)
	count := len(h.clients)
	h.mu.Unlock()

	if !present {
		return
	}
	h.logger.Info("client disconnected", zap.String("connection_id", c.ID), zap.Int("clients", count))
	for _, fn := range h.onDisconnect {
		fn(c.ID)
	}
	h.Broadcast(EventClientCount, count)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(event string, payload interface{}) {
	msg, err := envelope(event, payload)
	if err != nil {
		h.logger.Error("encode broadcast", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// SendTo sends an event to a single client. Unknown ids are ignored; the
// client may have disconnected between lookup and send.
func (h *Hub) SendTo(connectionID, event string, payload interface{}) {
	msg, err := envelope(event, payload)
	if err != nil {
		h.logger.Error("encode unicast", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Hub) dispatch(connectionID, event string, data json.RawMessage) {
	if h.handler == nil {
		return
	}
	h.handler(connectionID, event, data)
}

func envelope(event string, payload interface{}) (Envelope, error) {
	msg := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, err
		}
		msg.Data = data
	}
	return msg, nil
}
