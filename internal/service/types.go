package service

import (
	"strings"
	"time"
)

// Identity 是连接完成鉴权后绑定的身份。
type Identity struct {
	UserID   string
	Username string
}

// DirectMessage 是 message 事件的线上载荷，字段名与历史客户端保持兼容。
type DirectMessage struct {
	ID          string    `json:"id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Transport   string    `json:"transport,omitempty"`
}

// Conversation 是收件箱里的单个会话摘要，按需计算，不落库。
type Conversation struct {
	Contact            string    `json:"contact"`
	LastMessagePreview string    `json:"last_message_preview"`
	LastTimestamp      time.Time `json:"last_timestamp"`
	UnreadCount        int       `json:"unread_count"`
}

// UserStatus 描述某个用户当前是否在线。
type UserStatus struct {
	Username string `json:"username"`
	Status   string `json:"status"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Presence 查询某个用户当前是否可达，键为规范化用户名。
type Presence interface {
	IsOnline(username string) bool
}

// Delivery 将消息投递给在线的接收方，返回是否找到了活跃连接。
type Delivery interface {
	DeliverMessage(username string, msg *DirectMessage) bool
}

// NormalizeUsername 生成路由与策略检查用的键；展示值保留原始大小写。
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
