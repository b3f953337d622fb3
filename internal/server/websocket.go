package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeusync/arview/internal/core/events/bus"
	"github.com/zeusync/arview/internal/core/observability/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func newUpgrader(allowed []string) websocket.Upgrader {
	u := upgrader
	if len(allowed) == 0 {
		return u
	}
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			u.CheckOrigin = func(*http.Request) bool { return true }
			return u
		}
		origins[o] = struct{}{}
	}
	u.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := origins[origin]
		return ok
	}
	return u
}

// Hub fans scene events out to every connected client.
type Hub struct {
	clients    map[*client]struct{}
	mu         sync.RWMutex
	closed     bool
	subs       []bus.Subscription
	bus        bus.EventBus
	sendBuffer int
	logger     log.Log
}

func NewHub(b bus.EventBus, topic string, sendBuffer int, logger log.Log) (*Hub, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	h := &Hub{
		clients:    make(map[*client]struct{}),
		bus:        b,
		sendBuffer: sendBuffer,
		logger:     logger,
	}
	for _, typ := range []string{bus.TypeSnapshot, bus.TypeNotice} {
		sub, err := b.SubscribeTopic(topic, typ, h.handleEvent)
		if err != nil {
			h.unsubscribe()
			return nil, err
		}
		h.subs = append(h.subs, sub)
	}
	return h, nil
}

func (h *Hub) handleEvent(ev bus.Event) error {
	var typ string
	switch ev.Type() {
	case bus.TypeSnapshot:
		typ = MessageSnapshot
	case bus.TypeNotice:
		typ = MessageNotice
	default:
		return nil
	}
	data, err := encodeMessage(typ, ev.Data())
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// Broadcast queues data for every client. Clients whose queue is full are
// disconnected.
func (h *Hub) Broadcast(data []byte) {
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if !c.trySend(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow client", log.String("client_id", c.id))
		h.remove(c)
	}
}

// add registers c after queueing the message built by initial. Both happen
// under the write lock, so no broadcast can reach c before it.
func (h *Hub) add(c *client, initial func() ([]byte, error)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if initial != nil {
		data, err := initial()
		if err != nil {
			h.logger.Warn("initial message failed", log.String("client_id", c.id), log.Error(err))
		} else {
			c.trySend(data)
		}
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unsubscribes from the bus and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	h.unsubscribe()
	for c := range clients {
		c.close()
	}
}

func (h *Hub) unsubscribe() {
	for _, sub := range h.subs {
		_ = h.bus.Unsubscribe(sub)
	}
	h.subs = nil
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{
		id:   r.RemoteAddr,
		conn: conn,
		send: make(chan []byte, s.hub.sendBuffer),
	}
	// new clients start from the current scene
	initial := func() ([]byte, error) {
		return encodeMessage(MessageSnapshot, s.ctrl.Latest())
	}
	if !s.hub.add(c, initial) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	s.logger.Info("client connected", log.String("client_id", c.id), log.Int("clients", s.hub.Len()))

	go s.writePump(c)
	s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.hub.remove(c)
		s.logger.Info("client disconnected", log.String("client_id", c.id))
	}()

	c.conn.SetReadLimit(s.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, p, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", log.String("client_id", c.id), log.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(p, &msg); err != nil {
			s.replyError(c, ErrInvalidMessage)
			continue
		}
		if err := s.dispatch(c, msg); err != nil {
			s.replyError(c, err)
		}
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("websocket write failed", log.String("client_id", c.id), log.Error(err))
				s.hub.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.hub.remove(c)
				return
			}
		}
	}
}

func (s *Server) replyError(c *client, err error) {
	s.logger.Debug("message rejected", log.String("client_id", c.id), log.Error(err))
	data, encErr := encodeMessage(MessageError, ErrorPayload{Message: err.Error()})
	if encErr != nil {
		return
	}
	c.trySend(data)
}
