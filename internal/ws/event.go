package ws

import "encoding/json"

// 入站事件名。
const (
	EvtRegister          = "register"
	EvtLogin             = "login"
	EvtMessage           = "message"
	EvtGetInbox          = "get_inbox"
	EvtGetChatHistory    = "get_chat_history"
	EvtGetOnlineUsers    = "get_online_users"
	EvtGetAllUsersStatus = "get_all_users_status"
	EvtUploadPublicKeys  = "upload_public_keys"
	EvtGetPublicKeys     = "get_public_keys"
)

// 出站事件名。
const (
	EvtRegisterSuccess    = "register_success"
	EvtLoginSuccess       = "login_success"
	EvtNotification       = "notification"
	EvtUserStatus         = "user_status"
	EvtInboxData          = "inbox_data"
	EvtChatHistory        = "chat_history"
	EvtOnlineUsersData    = "online_users_data"
	EvtAllUsersStatusData = "all_users_status_data"
	EvtPublicKeysUploaded = "public_keys_uploaded"
	EvtPublicKeysData     = "public_keys_data"
	EvtError              = "error"
)

// Event 是 websocket 上双向传输的统一帧格式。
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrorPayload 是 error 事件的载荷；Errors 只在结构校验失败时携带字段明细。
type ErrorPayload struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func encodeEvent(event string, payload interface{}) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(Event{Event: event, Data: data})
}
