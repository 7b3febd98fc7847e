// Package websocket - live comment event stream
// Pushes created, deleted and reaction events to listeners of an article
package websocket

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"threadhub/pkg/models"
)

const (
	maxMessageSize  = 512
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	sendBuffer      = 64
	maxRoomSize     = 1000
	cleanupInterval = 5 * time.Minute
)

// Hub manages one room per article and fans events out to its listeners.
// It implements core.EventPublisher.
type Hub struct {
	roomsMu sync.RWMutex
	rooms   map[int64]*Room
	stop    chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

// Room holds the listeners of one article
type Room struct {
	articleID  int64
	clientsMu  sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan models.CommentEvent
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	// joining counts listeners handed out by join that run has not
	// registered yet; cleanup leaves such rooms alone
	joining atomic.Int32
}

// Client is one websocket listener
type Client struct {
	room         *Room
	conn         *websocket.Conn
	send         chan models.CommentEvent
	userID       string
	onDisconnect func()
}

// NewHub creates a hub and starts its cleanup routine
func NewHub() *Hub {
	hub := &Hub{
		rooms: make(map[int64]*Room),
		stop:  make(chan struct{}),
	}

	hub.wg.Add(1)
	go hub.cleanupRooms()

	return hub
}

// cleanupRooms periodically removes empty rooms
func (h *Hub) cleanupRooms() {
	defer h.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.sweep()

		case <-h.stop:
			return
		}
	}
}

// sweep closes rooms with no listeners and no registration under way
func (h *Hub) sweep() {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	for articleID, room := range h.rooms {
		if room.size() == 0 && room.joining.Load() == 0 {
			close(room.stop)
			delete(h.rooms, articleID)
			logrus.Debugf("cleaned up empty room for article %d", articleID)
		}
	}
}

// room returns the article's room or nil
func (h *Hub) room(articleID int64) *Room {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	return h.rooms[articleID]
}

// join returns the article's room, creating it if needed, and reserves a
// registration in it. It returns nil once the hub is stopped.
func (h *Hub) join(articleID int64) *Room {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	if h.stopped {
		return nil
	}
	if room, ok := h.rooms[articleID]; ok {
		room.joining.Add(1)
		return room
	}

	room := &Room{
		articleID:  articleID,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.CommentEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
	room.joining.Add(1)
	h.rooms[articleID] = room
	go room.run()

	logrus.Debugf("created room for article %d", articleID)
	return room
}

// Publish delivers event to every listener of its article. It never blocks
// on slow listeners.
func (h *Hub) Publish(event models.CommentEvent) {
	room := h.room(event.ArticleID)
	if room == nil {
		return
	}
	select {
	case room.broadcast <- event:
	case <-room.stop:
	default:
		logrus.Warnf("room %d broadcast queue full, dropping %s event", event.ArticleID, event.Type)
	}
}

// run serializes membership changes and broadcasts of one room
func (r *Room) run() {
	for {
		select {
		case client := <-r.register:
			r.clientsMu.Lock()
			full := len(r.clients) >= maxRoomSize
			if !full {
				r.clients[client] = true
			}
			r.clientsMu.Unlock()
			r.joining.Add(-1)
			if full {
				logrus.Warnf("room %d full, rejecting listener %s", r.articleID, client.userID)
				close(client.send)
			}

		case client := <-r.unregister:
			r.drop(client)

		case event := <-r.broadcast:
			r.clientsMu.RLock()
			var slow []*Client
			for client := range r.clients {
				select {
				case client.send <- event:
				default:
					slow = append(slow, client)
				}
			}
			r.clientsMu.RUnlock()
			for _, client := range slow {
				logrus.Warnf("listener %s too slow, disconnecting", client.userID)
				r.drop(client)
			}

		case <-r.stop:
			r.clientsMu.Lock()
			for client := range r.clients {
				close(client.send)
			}
			r.clients = make(map[*Client]bool)
			r.clientsMu.Unlock()
			return
		}
	}
}

func (r *Room) drop(client *Client) {
	r.clientsMu.Lock()
	defer r.clientsMu.Unlock()
	if _, ok := r.clients[client]; ok {
		delete(r.clients, client)
		close(client.send)
	}
}

func (r *Room) size() int {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	return len(r.clients)
}

// readPump only services control frames; listeners never send events
func (c *Client) readPump() {
	defer func() {
		if c.onDisconnect != nil {
			c.onDisconnect()
		}
		select {
		case c.room.unregister <- c:
		case <-c.room.stop:
		}
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Warnf("websocket read error: %v", err)
			}
			return
		}
	}
}

// writePump writes events and keepalive pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				logrus.Errorf("failed to marshal event: %v", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// ServeClient attaches conn as a listener of articleID
func (h *Hub) ServeClient(conn *websocket.Conn, userID string, articleID int64, onDisconnect func()) {
	room := h.join(articleID)
	if room == nil {
		conn.Close()
		return
	}

	client := &Client{
		room:         room,
		conn:         conn,
		send:         make(chan models.CommentEvent, sendBuffer),
		userID:       userID,
		onDisconnect: onDisconnect,
	}

	select {
	case room.register <- client:
	case <-room.stop:
		conn.Close()
		return
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// ListenerCount returns the number of listeners of an article
func (h *Hub) ListenerCount(articleID int64) int {
	room := h.room(articleID)
	if room == nil {
		return 0
	}
	return room.size()
}

// Stop closes every room and waits for client goroutines to exit
func (h *Hub) Stop() {
	logrus.Info("stopping websocket hub")

	h.roomsMu.Lock()
	if h.stopped {
		h.roomsMu.Unlock()
		return
	}
	h.stopped = true
	close(h.stop)
	for articleID, room := range h.rooms {
		close(room.stop)
		delete(h.rooms, articleID)
	}
	h.roomsMu.Unlock()

	h.wg.Wait()
	logrus.Info("websocket hub stopped")
}
