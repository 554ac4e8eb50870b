package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/daniel-odulate22/vigil-scan/internal/scanner"
	"github.com/daniel-odulate22/vigil-scan/internal/syncer"
)

// Event message types pushed to connected clients.
const (
	EventScannerState = "scanner_state"
	EventScanDecoded  = "scan_decoded"
	EventSyncResult   = "sync_result"
	EventConnectivity = "connectivity"
)

// Event is a typed message pushed over the events WebSocket.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type eventClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans scanner, sync and connectivity events out to every connected
// WebSocket client.
type Hub struct {
	clients    map[*eventClient]bool
	register   chan *eventClient
	unregister chan *eventClient
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates an event hub. Run must be called before clients connect.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*eventClient]bool),
		register:   make(chan *eventClient),
		unregister: make(chan *eventClient),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop; it blocks until the context is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Unblock any in-flight register/unregister senders first so
			// connection goroutines cannot hang on a stopped hub.
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Client buffer full, drop it
					go func(c *eventClient) {
						select {
						case h.unregister <- c:
						case <-h.done:
						}
					}(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues an event for every connected client.
func (h *Hub) Publish(eventType string, payload any) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Printf("Event dropped, broadcast buffer full: %s", eventType)
	}
}

// PublishScannerState pushes a scanner snapshot.
func (h *Hub) PublishScannerState(s scanner.Snapshot) {
	h.Publish(EventScannerState, s)
}

// PublishDecode pushes a decoded barcode value.
func (h *Hub) PublishDecode(value string) {
	h.Publish(EventScanDecoded, gin.H{"value": value})
}

// PublishSyncResult pushes drain accounting.
func (h *Hub) PublishSyncResult(res syncer.Result) {
	h.Publish(EventSyncResult, res)
}

// PublishConnectivity pushes an online/offline transition.
func (h *Hub) PublishConnectivity(online bool) {
	h.Publish(EventConnectivity, gin.H{"online": online})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeEvents upgrades the request to a WebSocket and streams events until
// the client disconnects.
func ServeEvents(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := &eventClient{conn: conn, send: make(chan []byte, 64)}
		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

// writePump pumps hub events to the connection, pinging to keep it alive.
func (c *eventClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages; it exists to detect disconnects and
// answer pings.
func (c *eventClient) readPump(hub *Hub) {
	defer func() {
		select {
		case hub.unregister <- c:
		case <-hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}
