// Package realtime pushes refresh events to browsers watching a property.
package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

type Event struct {
	Type       string `json:"type"`
	Message    string `json:"message,omitempty"`
	PropertyID uint   `json:"property_id"`
}

// client owns one connection. Only its write loop writes to conn, so
// broadcasters never wait on a slow socket.
type client struct {
	conn *websocket.Conn
	send chan Event
	quit chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan Event, sendBuffer),
		quit: make(chan struct{}),
	}
}

// enqueue never blocks; false means the buffer is full.
func (c *client) enqueue(event Event) bool {
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *client) stop() {
	c.once.Do(func() {
		close(c.quit)

		if c.conn != nil {
			c.conn.Close()
		}
	})
}

func (c *client) writeLoop(log *logrus.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var err error

		select {
		case <-c.quit:
			return
		case event := <-c.send:
			if err = c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err == nil {
				err = c.conn.WriteJSON(event)
			}
		case <-ticker.C:
			if err = c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err == nil {
				err = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
		}

		if err != nil {
			log.WithError(err).Debug("websocket write failed")
			c.stop()
			return
		}
	}
}

// Hub tracks websocket subscribers per property.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uint]map[*client]bool
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

// NewHub accepts connections whose Origin is in allowedOrigins. Requests
// without an Origin header come from non-browser clients and are accepted.
func NewHub(allowedOrigins []string, log *logrus.Logger) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))

	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	h := &Hub{
		clients: make(map[uint]map[*client]bool),
		log:     log,
	}

	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		},
	}

	return h
}

// PropertyChanged tells every subscriber of the property to refetch.
func (h *Hub) PropertyChanged(propertyID uint) {
	h.Broadcast(propertyID, Event{
		Type:       "refresh",
		Message:    "Property data updated",
		PropertyID: propertyID,
	})
}

// Broadcast queues event for every subscriber of the property. A client whose
// queue is full is disconnected rather than waited on.
func (h *Hub) Broadcast(propertyID uint, event Event) {
	var overflow []*client

	h.mu.RLock()
	for c := range h.clients[propertyID] {
		if !c.enqueue(event) {
			overflow = append(overflow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range overflow {
		h.log.WithField("property_id", propertyID).Warn("subscriber too slow, dropping client")
		h.remove(propertyID, c)
		c.stop()
	}
}

// Subscribers reports how many connections watch the property.
func (h *Hub) Subscribers(propertyID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[propertyID])
}

// Serve upgrades the request and blocks until the connection closes.
// Authorization must already have happened.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, propertyID uint) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)

	if err != nil {
		return err
	}

	log := h.log.WithField("property_id", propertyID)
	c := newClient(conn)

	conn.SetReadLimit(maxMessageSize)

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return err
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.enqueue(Event{
		Type:       "connected",
		Message:    "WebSocket connection established",
		PropertyID: propertyID,
	})

	h.add(propertyID, c)

	defer func() {
		h.remove(propertyID, c)
		c.stop()
		log.Debug("websocket closed")
	}()

	go c.writeLoop(log)

	// Clients only listen; reading drives the pong handler and detects close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Info("websocket error")
			}
			return nil
		}
	}
}

func (h *Hub) add(propertyID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[propertyID] == nil {
		h.clients[propertyID] = make(map[*client]bool)
	}
	h.clients[propertyID][c] = true
}

func (h *Hub) remove(propertyID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[propertyID]; ok {
		delete(clients, c)

		if len(clients) == 0 {
			delete(h.clients, propertyID)
		}
	}
}
