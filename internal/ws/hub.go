package ws

import (
	"sync"

	"github.com/d4rkarmy8/OffTheGrid/internal/metrics"
	"github.com/d4rkarmy8/OffTheGrid/internal/service"
	"github.com/rs/zerolog/log"
)

// Hub 维护全部活跃连接与在线表（规范化用户名 -> 当前连接）。
// 在线表是"该用户此刻是否可达"的唯一事实来源，仅存在于进程内存，
// 重启即丢失，跨重启的在线状态只能当作尽力而为。
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	byUser  map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		byUser:  make(map[string]*Client),
	}
}

// Add 将连接加入广播集合，未鉴权的连接同样能收到状态广播。
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	metrics.WsConnections.Inc()
}

// Register 让连接占据用户名的在线表项并广播 online。
// 同名用户再次登录时新连接直接覆盖旧表项（最后登录者生效），
// 旧连接保持打开但不再可路由，也不会收到任何通知。
func (h *Hub) Register(c *Client, id *service.Identity) {
	key := service.NormalizeUsername(id.Username)
	if key == "" {
		return
	}

	h.mu.Lock()
	// 同一连接换号登录时清掉它之前占据的表项，避免幽灵在线。
	if c.userKey != "" && c.userKey != key && h.byUser[c.userKey] == c {
		delete(h.byUser, c.userKey)
	}
	if old, ok := h.byUser[key]; ok && old != c {
		log.Debug().Str("username", key).Msg("presence slot taken over by newer session")
	}
	h.byUser[key] = c
	c.userKey = key
	c.display = id.Username
	metrics.OnlineUsers.Set(float64(len(h.byUser)))
	h.mu.Unlock()

	h.Broadcast(EvtUserStatus, service.UserStatus{Username: id.Username, Status: service.StatusOnline})
}

// Remove 将连接移出广播集合并通知其写循环退出。
// 在线表项只有在仍归属该连接时才清除：用户快速重连时新连接已经
// 占据了表项，旧连接的清理回调不能把刚上线的用户标成离线。
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	name := h.dropLocked(c)
	h.mu.Unlock()

	if name != "" {
		h.Broadcast(EvtUserStatus, service.UserStatus{Username: name, Status: service.StatusOffline})
	}
}

// IsOnline 报告规范化用户名当前是否有活跃连接。
func (h *Hub) IsOnline(username string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.byUser[username]
	return ok
}

// OnlineUsers 返回除 excluding 之外所有在线用户名（规范化形式）。
func (h *Hub) OnlineUsers(excluding string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.byUser))
	for name := range h.byUser {
		if name == excluding {
			continue
		}
		out = append(out, name)
	}
	return out
}

// DeliverMessage 将 message 事件投递给在线的接收方。
// 返回 false 表示接收方没有活跃连接（或其发送队列已满被放弃）。
func (h *Hub) DeliverMessage(username string, msg *service.DirectMessage) bool {
	frame, err := encodeEvent(EvtMessage, msg)
	if err != nil {
		log.Error().Err(err).Str("id", msg.ID).Msg("encode message event")
		return false
	}

	h.mu.Lock()
	c, ok := h.byUser[username]
	if !ok {
		h.mu.Unlock()
		return false
	}
	select {
	case c.send <- frame:
		h.mu.Unlock()
		return true
	default:
		// 发送队列堆满说明连接已经不健康，照搬广播路径的处理：踢掉并广播下线。
		name := h.dropLocked(c)
		h.mu.Unlock()
		if name != "" {
			h.Broadcast(EvtUserStatus, service.UserStatus{Username: name, Status: service.StatusOffline})
		}
		return false
	}
}

// Broadcast 把事件发给所有连接，发送队列满的连接直接踢掉。
func (h *Hub) Broadcast(event string, payload interface{}) {
	frame, err := encodeEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("encode broadcast event")
		return
	}

	var offline []string
	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			if name := h.dropLocked(c); name != "" {
				offline = append(offline, name)
			}
		}
	}
	h.mu.Unlock()

	for _, name := range offline {
		h.Broadcast(EvtUserStatus, service.UserStatus{Username: name, Status: service.StatusOffline})
	}
}

// dropLocked 在持锁状态下移除一个连接，返回因此下线的用户名（可能为空）。
// 只关 done 不关 send：send 上可能还有别的 goroutine 正在发帧，
// 关掉它会让晚到的发送直接 panic。
func (h *Hub) dropLocked(c *Client) string {
	if _, ok := h.clients[c]; !ok {
		return ""
	}
	delete(h.clients, c)
	close(c.done)
	metrics.WsConnections.Dec()
	if c.userKey != "" && h.byUser[c.userKey] == c {
		delete(h.byUser, c.userKey)
		metrics.OnlineUsers.Set(float64(len(h.byUser)))
		return c.display
	}
	return ""
}
