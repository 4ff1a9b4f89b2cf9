package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"sharify/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Hub maps userID -> connected Clients and routes events to them.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	notifier   *Notifier
	log        *observability.WSLogger
	closed     bool
}

// NewHub creates a hub. With an enabled notifier, published events travel
// through redis so every API instance delivers them; otherwise they are
// delivered to this process's clients directly.
func NewHub(notifier *Notifier) *Hub {
	return &Hub{
		conns:    make(map[uint]map[*Client]struct{}),
		notifier: notifier,
		log:      observability.NewWSLogger("event hub"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "event hub" }

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()
	h.log.LogConnect(context.Background(), userID)
	return client, nil
}

// UnregisterClient removes client. It is safe to call more than once.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	h.totalConns--
	observability.WebSocketConnections.Dec()
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	client.close()
	h.log.LogDisconnect(context.Background(), client.UserID, "unregistered")
}

// Connections returns the number of registered clients.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// deliverUser sends message to all connections for userID
func (h *Hub) deliverUser(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.conns[userID] {
		c.TrySend(data)
	}
}

// deliverAll sends message to every connected websocket client.
func (h *Hub) deliverAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// PublishUser routes ev to every session of userID.
func (h *Hub) PublishUser(ctx context.Context, userID uint, ev Event) error {
	observability.WebSocketEventsTotal.WithLabelValues(ev.Type).Inc()
	if h.notifier.Enabled() {
		return h.notifier.PublishUser(ctx, userID, ev)
	}
	msg, err := ev.Encode()
	if err != nil {
		return err
	}
	h.deliverUser(userID, msg)
	return nil
}

// PublishAll routes ev to every connected client.
func (h *Hub) PublishAll(ctx context.Context, ev Event) error {
	observability.WebSocketEventsTotal.WithLabelValues(ev.Type).Inc()
	if h.notifier.Enabled() {
		return h.notifier.PublishBroadcast(ctx, ev)
	}
	msg, err := ev.Encode()
	if err != nil {
		return err
	}
	h.deliverAll(msg)
	return nil
}

// StartWiring subscribes to the notifier's channels and forwards messages to
// the matching local connections. It is a no-op without redis.
func (h *Hub) StartWiring(ctx context.Context) error {
	return h.notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == broadcastChannel {
			h.deliverAll(payload)
			return
		}
		userID, ok := parseUserChannel(channel)
		if !ok {
			observability.Logger.Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.deliverUser(userID, payload)
	})
}

// Shutdown closes every connection and refuses new ones.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true

	for userID, userConns := range h.conns {
		for client := range userConns {
			client.close()
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				h.log.LogError(context.Background(), userID, err, "close")
			}
			_ = client.Conn.Close()
		}
	}
	observability.WebSocketConnections.Sub(float64(h.totalConns))
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
