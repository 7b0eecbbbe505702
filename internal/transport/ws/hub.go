package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"leavehub/internal/notify"
	"leavehub/internal/requestctx"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Subscriber registers a connection with the change-notification bridge.
type Subscriber interface {
	Subscribe(userID string, refresh func()) *notify.Session
}

// Hub tracks the open websocket connections per user and pushes toast and
// refresh frames to them. It implements the bridge's Notifier.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	subscriber Subscriber
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	// mu serializes enqueue against shutdown so no frame is ever sent on
	// a closed channel.
	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// frame is the wire envelope written to the browser.
type frame struct {
	Type  string     `json:"type"`
	Toast *toastView `json:"toast,omitempty"`
}

type toastView struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	Variant    string `json:"variant"`
	DurationMs int64  `json:"durationMs"`
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Bind attaches the bridge after construction; the hub and the bridge
// reference each other.
func (h *Hub) Bind(s Subscriber) {
	h.subscriber = s
}

// Push delivers the toast to every open connection of the target user.
// Slow consumers are dropped rather than blocking delivery.
func (h *Hub) Push(toast notify.Toast) {
	payload, err := json.Marshal(frame{
		Type: "toast",
		Toast: &toastView{
			Title:      toast.Title,
			Body:       toast.Body,
			Variant:    toast.Variant,
			DurationMs: toast.Duration.Milliseconds(),
		},
	})
	if err != nil {
		slog.Warn("toast frame marshal failed", "err", err)
		return
	}

	h.mu.RLock()
	var stalled []*client
	for c := range h.clients {
		if c.userID != toast.UserID {
			continue
		}
		if !c.enqueue(payload) {
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	// drop takes the write lock, so it must wait until the scan released
	// the read lock.
	for _, c := range stalled {
		h.drop(c)
	}
}

var refreshFrame = []byte(`{"type":"refresh"}`)

// ServeWS upgrades the request and binds the connection to the
// authenticated user. Requires the auth middleware upstream.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, ok := requestctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 32),
		userID: user.UserID,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	slog.Info("websocket connected", "userId", user.UserID, "clients", count)

	var session *notify.Session
	if h.subscriber != nil {
		session = h.subscriber.Subscribe(user.UserID, func() {
			if !c.enqueue(refreshFrame) {
				h.drop(c)
			}
		})
	}

	go c.writePump()
	c.readPump(session)
}

// enqueue reports whether the frame was accepted. A full buffer or an
// already dropped client refuses the frame; the caller decides whether
// that ends the connection.
func (c *client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel exactly once; writePump exits when it
// drains the channel.
func (c *client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// drop unregisters the client; callers must not hold h.mu. Idempotent.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.shutdown()
}

// readPump keeps the connection alive and tears the session down on close.
// Inbound payloads are ignored; the stream is push-only.
func (c *client) readPump(session *notify.Session) {
	defer func() {
		if session != nil {
			session.Close()
		}
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "userId", c.userID, "err", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
