package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/d4rkarmy8/OffTheGrid/internal/service"
	"github.com/rs/zerolog/log"
)

// dispatch 解析入站帧并路由到对应的处理函数。
// 错误永远以 error 事件回给当前连接，连接本身不会因此被断开。
func (c *Client) dispatch(data []byte) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		c.sendError("Invalid payload")
		return
	}

	switch evt.Event {
	case EvtRegister:
		c.handleRegister(evt.Data)
	case EvtLogin:
		c.handleLogin(evt.Data)
	case EvtMessage:
		c.handleMessage(evt.Data)
	case EvtGetInbox:
		c.handleGetInbox()
	case EvtGetChatHistory:
		c.handleGetChatHistory(evt.Data)
	case EvtGetOnlineUsers:
		c.handleGetOnlineUsers()
	case EvtGetAllUsersStatus:
		c.handleGetAllUsersStatus()
	case EvtUploadPublicKeys:
		c.handleUploadPublicKeys(evt.Data)
	case EvtGetPublicKeys:
		c.handleGetPublicKeys(evt.Data)
	default:
		log.Debug().Str("event", evt.Event).Msg("unknown event ignored")
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) handleRegister(data json.RawMessage) {
	var req credentials
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid payload")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 2 || len(req.Username) > 50 || len(req.Password) < 4 || len(req.Password) > 128 {
		c.sendError("Invalid username or password")
		return
	}
	result, err := c.deps.Users.Register(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, service.ErrUsernameTaken) {
			log.Error().Err(err).Str("username", req.Username).Msg("register")
		}
		c.sendError("Registration failed (Username might be taken)")
		return
	}
	// 注册成功不自动登录，客户端需要随后走 login。
	c.sendEvent(EvtRegisterSuccess, map[string]string{"userId": result.UserID})
}

func (c *Client) handleLogin(data json.RawMessage) {
	var req credentials
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid payload")
		return
	}
	result, err := c.deps.Users.Login(strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.sendError("User not found")
		case errors.Is(err, service.ErrInvalidCredentials):
			c.sendError("Invalid password")
		default:
			log.Error().Err(err).Str("username", req.Username).Msg("login")
			c.sendError("Login failed")
		}
		return
	}

	c.identity = &service.Identity{UserID: result.UserID, Username: result.Username}
	c.hub.Register(c, c.identity)
	log.Info().Str("username", result.Username).Msg("user logged in")

	c.sendEvent(EvtLoginSuccess, result)
}

func (c *Client) handleMessage(data json.RawMessage) {
	var msg service.DirectMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("Invalid message format")
		return
	}

	result, err := c.deps.Router.Route(c.identity, &msg)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			c.sendError("Unauthorized")
		case errors.As(err, &verr):
			c.sendEvent(EvtError, ErrorPayload{Message: "Invalid message format", Errors: verr.Fields})
		case errors.Is(err, service.ErrRecipientRequired):
			c.sendError(`Recipient "to" field is required`)
		case errors.Is(err, service.ErrSelfMessage):
			c.sendError("You cannot message yourself")
		case errors.Is(err, service.ErrEmptyContent):
			c.sendError("Message cannot be empty")
		case errors.Is(err, service.ErrContentTooLong):
			c.sendError("Message is too long")
		case errors.Is(err, service.ErrRateLimited):
			c.sendError("You are sending messages too fast")
		default:
			log.Error().Err(err).Str("id", msg.ID).Msg("route message")
			c.sendError("Failed to send message")
		}
		return
	}

	// 重复 ID 静默吸收；在线投递成功也无需额外回执。
	if result.Duplicate || result.Delivered {
		return
	}

	// 接收方不在线：告知发送方，消息保持 sent 状态等待对方拉取历史。
	c.sendEvent(EvtNotification, fmt.Sprintf("User %s is offline.", msg.To))
	c.sendEvent(EvtUserStatus, service.UserStatus{Username: msg.To, Status: service.StatusOffline})
}

func (c *Client) handleGetInbox() {
	if c.identity == nil {
		c.sendError("Unauthorized")
		return
	}
	inbox, err := c.deps.Inbox.GetInbox(c.identity.Username)
	if err != nil {
		log.Error().Err(err).Str("username", c.identity.Username).Msg("get inbox")
		c.sendError("Failed to fetch inbox")
		return
	}
	c.sendEvent(EvtInboxData, inbox)
}

func (c *Client) handleGetChatHistory(data json.RawMessage) {
	if c.identity == nil {
		c.sendError("Unauthorized")
		return
	}
	var req struct {
		Contact string `json:"contact"`
	}
	if err := json.Unmarshal(data, &req); err != nil || strings.TrimSpace(req.Contact) == "" {
		c.sendError("Contact is required")
		return
	}
	msgs, err := c.deps.History.GetHistory(c.identity.Username, req.Contact, service.DefaultHistoryLimit)
	if err != nil {
		log.Error().Err(err).Str("username", c.identity.Username).Str("contact", req.Contact).Msg("get chat history")
		c.sendError("Failed to fetch history")
		return
	}
	c.sendEvent(EvtChatHistory, map[string]interface{}{"contact": req.Contact, "messages": msgs})
}

func (c *Client) handleGetOnlineUsers() {
	if c.identity == nil {
		c.sendError("Unauthorized")
		return
	}
	online := c.hub.OnlineUsers(service.NormalizeUsername(c.identity.Username))
	c.sendEvent(EvtOnlineUsersData, online)
}

func (c *Client) handleGetAllUsersStatus() {
	if c.identity == nil {
		c.sendError("Unauthorized")
		return
	}
	statuses, err := c.deps.Users.AllUsersStatus(c.identity.Username, c.hub)
	if err != nil {
		log.Error().Err(err).Str("username", c.identity.Username).Msg("get all users status")
		c.sendError("Failed to fetch users status")
		return
	}
	c.sendEvent(EvtAllUsersStatusData, statuses)
}

func (c *Client) handleUploadPublicKeys(data json.RawMessage) {
	if c.identity == nil {
		c.sendError("Unauthorized")
		return
	}
	var req struct {
		SigningPublicKey    string `json:"signingPublicKey"`
		EncryptionPublicKey string `json:"encryptionPublicKey"`
		Format              string `json:"format"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid payload")
		return
	}
	if req.SigningPublicKey == "" || req.EncryptionPublicKey == "" {
		c.sendError("Both signing and encryption public keys are required")
		return
	}
	rec, err := c.deps.Keys.Upload(c.identity, req.SigningPublicKey, req.EncryptionPublicKey, req.Format)
	if err != nil {
		log.Error().Err(err).Str("username", c.identity.Username).Msg("upload public keys")
		c.sendError("Failed to upload public keys")
		return
	}
	c.sendEvent(EvtPublicKeysUploaded, map[string]string{"userId": rec.UserID, "username": rec.Username})
}

func (c *Client) handleGetPublicKeys(data json.RawMessage) {
	if c.identity == nil {
		c.sendError("Unauthorized")
		return
	}
	var req struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &req); err != nil || strings.TrimSpace(req.Username) == "" {
		c.sendError("Username is required")
		return
	}
	rec, err := c.deps.Keys.Lookup(req.Username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.sendError("Public keys not found")
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("get public keys")
		c.sendError("Failed to fetch public keys")
		return
	}
	c.sendEvent(EvtPublicKeysData, map[string]string{
		"userId":              rec.UserID,
		"username":            rec.Username,
		"signingPublicKey":    rec.SigningKey,
		"encryptionPublicKey": rec.EncryptionKey,
		"format":              rec.Format,
	})
}
