package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"QuantDash/internal/scheduler"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans session views out to WebSocket clients.
type Hub struct {
	sched *scheduler.Scheduler
	log   zerolog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	sub  <-chan scheduler.Session
	done chan struct{}
	once sync.Once

	// ctx bounds commands received from peers; Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

// Client represents a single WebSocket peer.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// clientMessage is what peers may send: {"type":"command","id":"predict"}.
type clientMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// envelope wraps every pushed message.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func NewHub(sched *scheduler.Scheduler, log zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		sched:   sched,
		log:     log,
		clients: make(map[*Client]struct{}),
		sub:     sched.Subscribe(),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Run broadcasts every session change until Stop or the scheduler stops.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-h.sub:
			if !ok {
				h.Stop()
				return
			}
			h.Broadcast(h.view())
		}
	}
}

// Stop disconnects every client and cancels the commands they started.
func (h *Hub) Stop() {
	h.once.Do(func() {
		h.cancel()
		close(h.done)
		h.sched.Unsubscribe(h.sub)
		h.mu.Lock()
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
		h.mu.Unlock()
	})
}

func (h *Hub) view() []byte {
	msg, err := json.Marshal(envelope{Type: "session", Data: h.sched.View()})
	if err != nil {
		h.log.Error().Err(err).Msg("marshal session")
		return nil
	}
	return msg
}

// Broadcast queues msg for every client, dropping it for clients that are behind.
func (h *Hub) Broadcast(msg []byte) {
	if msg == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ClientCount reports the number of connected peers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return false
	default:
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (s *Server) handleWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("ws upgrade failed")
		return nil
	}
	client := &Client{conn: conn, send: make(chan []byte, sendBuffer), hub: s.hub}
	// Initial state, queued before the hub can close send.
	if msg := s.hub.view(); msg != nil {
		client.send <- msg
	}
	if !s.hub.add(client) {
		conn.Close()
		return nil
	}
	s.log.Debug().Int("clients", s.hub.ClientCount()).Msg("ws client connected")
	go client.writePump()
	client.readPump()
	return nil
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
		c.hub.log.Debug().Msg("ws client disconnected")
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if json.Unmarshal(raw, &msg) != nil || msg.Type != "command" {
			continue
		}
		go func(id string) {
			if err := c.hub.sched.Execute(c.hub.ctx, id); err != nil {
				c.hub.log.Warn().Err(err).Str("command", id).Msg("ws command rejected")
			}
		}(msg.ID)
	}
}
