package service

import "errors"

// 业务层通用错误，ws 分发层据此决定回给客户端的 error 事件文案。
var (
	ErrUnauthenticated    = errors.New("unauthorized")
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrRecipientRequired  = errors.New("recipient required")
	ErrSelfMessage        = errors.New("self message")
	ErrEmptyContent       = errors.New("empty content")
	ErrContentTooLong     = errors.New("content too long")
	ErrRateLimited        = errors.New("rate limited")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)
