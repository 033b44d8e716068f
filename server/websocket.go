package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"cvwidgets/media"
	"cvwidgets/util/signal"
)

const (
	heartbeatInterval = 10 * time.Second
	writeWait         = 5 * time.Second
	sendBuffer        = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is pushed to every websocket client when the player changes.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type client struct {
	conn     *websocket.Conn
	clientID string
	send     chan interface{}
	done     chan struct{}
	once     sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn:     conn,
		clientID: uuid.NewString(),
		send:     make(chan interface{}, sendBuffer),
		done:     make(chan struct{}),
	}
}

// enqueue never blocks; a client that does not keep up loses messages.
func (c *client) enqueue(msg interface{}) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		log.Warnf("client %s is slow, drop message", c.clientID)
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// writeLoop owns all writes to the connection and sends the heartbeat ping.
func (c *client) writeLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			log.WithError(err).Debug("Error closing WebSocket connection")
		}
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.WithError(err).Error("Error sending WebSocket message")
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithError(err).Error("Error sending heartbeat")
				c.close()
				return
			}
		}
	}
}

// hub fans player events out to the connected clients.
type hub struct {
	mu      sync.Mutex
	clients map[string]*client
	unwatch func()
}

func newHub() *hub {
	return &hub{clients: make(map[string]*client)}
}

func (h *hub) watch(p media.Controllable) {
	if p == nil {
		return
	}
	pos := p.PositionSignal().Connect(func(v int64) { h.broadcast(Event{Type: "position", Data: v}) })
	dur := p.DurationSignal().Connect(func(v int64) { h.broadcast(Event{Type: "duration", Data: v}) })
	st := p.StateSignal().Connect(func(v media.PlaybackState) { h.broadcast(Event{Type: "state", Data: v.String()}) })

	var status signal.Connection
	var statusSig *signal.Signal[media.MediaStatus]
	if ss, ok := p.(interface {
		StatusSignal() *signal.Signal[media.MediaStatus]
	}); ok {
		statusSig = ss.StatusSignal()
		status = statusSig.Connect(func(v media.MediaStatus) { h.broadcast(Event{Type: "status", Data: v.String()}) })
	}

	h.unwatch = func() {
		p.PositionSignal().Disconnect(pos)
		p.DurationSignal().Disconnect(dur)
		p.StateSignal().Disconnect(st)
		if statusSig != nil {
			statusSig.Disconnect(status)
		}
	}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.clientID] = c
	n := len(h.clients)
	h.mu.Unlock()
	log.Infof("client %s connected, %d clients", c.clientID, n)
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.clientID)
	h.mu.Unlock()
	c.close()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(msg interface{}) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.enqueue(msg)
	}
}

func (h *hub) close() {
	if h.unwatch != nil {
		h.unwatch()
		h.unwatch = nil
	}
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Error upgrading to WebSocket: %v", err)
		return
	}
	client := newClient(conn)
	s.hub.add(client)
	defer s.hub.remove(client)

	go client.writeLoop()
	client.enqueue(Event{Type: "snapshot", Data: s.manager.State()})

	// 设置连接关闭处理函数
	conn.SetCloseHandler(func(code int, text string) error {
		log.Infof("Client %s disconnected (code: %d, reason: %s)", client.clientID, code, text)
		return nil
	})

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("WebSocket connection closed")
			break
		}

		log.Debugf("Received message: Type=%d, Content=%s", messageType, p)

		switch messageType {
		case websocket.TextMessage:
			var msg ControlParams
			if err := json.Unmarshal(p, &msg); err != nil {
				log.WithError(err).Error("Error decoding WebSocket message")
				client.enqueue(Ret{Code: Failed, Message: err.Error()})
				continue
			}
			if msg.Command == "heartbeat" {
				log.Debugf("receive heartbeat from client: %v", client.clientID)
				client.enqueue(ControlParams{Command: "heartbeat"})
				continue
			}
			log.Infof("receive client message, %v", msg)
			s.handleWebSocketOperation(client, msg)
		default:
			log.Infof("WebSocket message type: %d", messageType)
		}
	}
}

func (s *Server) handleWebSocketOperation(c *client, params ControlParams) {
	var ret Ret
	if err := s.manager.Handle(params); err != nil {
		ret.Code = Failed
		ret.Message = err.Error()
		c.enqueue(ret)
		return
	}
	ret.Code = Success
	ret.Message = "success"
	ret.Data = s.manager.State()
	c.enqueue(ret)
}
