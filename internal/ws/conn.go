package ws

import (
	"net/http"
	"time"

	"github.com/d4rkarmy8/OffTheGrid/internal/auth"
	"github.com/d4rkarmy8/OffTheGrid/internal/config"
	"github.com/d4rkarmy8/OffTheGrid/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1 << 20 // 1MB
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Deps 汇集 ws 分发层依赖的全部业务服务。
type Deps struct {
	Users   *service.UserService
	Router  *service.MessageRouter
	Inbox   *service.InboxService
	History *service.HistoryService
	Keys    *service.KeyService
}

// Client 代表一条 websocket 连接。identity 仅在自己的 readPump 里读写；
// userKey/display 由 Hub 在持锁状态下维护，其他地方不要碰。
// send 永远不会被 close：Hub 踢人只关 done，向已满队列的发送直接丢帧，
// 这样任意 goroutine 都可以安全地往 send 写。
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	deps Deps

	identity *service.Identity
	userKey  string
	display  string
}

// Serve 处理 websocket 升级。携带合法 token 的连接立即绑定身份并上线；
// token 非法直接拒绝；不带 token 的连接保持匿名，只能 register/login。
func Serve(h *Hub, deps Deps, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if authz := c.GetHeader("Authorization"); token == "" && len(authz) > 7 && (authz[:7] == "Bearer " || authz[:7] == "bearer ") {
			token = authz[7:]
		}

		var identity *service.Identity
		if token != "" {
			claims, err := auth.ParseToken(token, cfg.JWTSecret)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication error"})
				return
			}
			identity = &service.Identity{UserID: claims.UserID, Username: claims.Username}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		client := &Client{
			hub:  h,
			conn: conn,
			send: make(chan []byte, sendBuffer),
			done: make(chan struct{}),
			deps: deps,
		}
		h.Add(client)

		if identity != nil {
			client.identity = identity
			log.Info().Str("username", identity.Username).Msg("authenticated connection")
			h.Register(client, identity)
		}

		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.dispatch(data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			_ = w.Close()
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendEvent 把事件塞进本连接的发送队列。连接已被 Hub 踢掉或队列满时
// 丢弃本帧并记日志，绝不阻塞调用方。
func (c *Client) sendEvent(event string, payload interface{}) {
	frame, err := encodeEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("encode event")
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- frame:
	default:
		log.Warn().Str("event", event).Msg("send queue full, event dropped")
	}
}

func (c *Client) sendError(message string) {
	c.sendEvent(EvtError, ErrorPayload{Message: message})
}
