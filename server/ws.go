package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 实时通道只做只读广播，跨域直接放行
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub 维护全部在线 WebSocket 连接并向它们广播消息。
// 事件上报与推荐下发都会往这里推一条通知。
type Hub struct {
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan any
	clients    map[*wsClient]struct{}
	log        zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan any, 256),
		clients:    make(map[*wsClient]struct{}),
		log:        logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Run 是 Hub 的事件循环，应在独立 goroutine 中启动。
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.Debug().Int("clients", len(h.clients)).Msg("client connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.Debug().Int("clients", len(h.clients)).Msg("client disconnected")
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// 慢客户端挤掉，不能拖垮广播
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Broadcast 向所有在线客户端投递一条消息；通道满时丢弃。
func (h *Hub) Broadcast(msg any) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Msg("broadcast channel full, message dropped")
	}
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan any
}

// ServeWS 升级连接并接入 Hub。
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &wsClient{hub: h, conn: conn, send: make(chan any, wsSendBuffer)}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

// readPump 消费客户端消息。收到任意文本都回一条 ping 应答，
// 客户端可据此探活。
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		select {
		case c.send <- map[string]any{
			"type":      "ping",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}:
		default:
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
