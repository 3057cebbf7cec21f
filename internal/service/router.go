package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/d4rkarmy8/OffTheGrid/internal/metrics"
	"github.com/d4rkarmy8/OffTheGrid/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MaxContentLength 是单条消息正文允许的最大字符数。
const MaxContentLength = 1000

// ValidationError 携带结构校验失败的字段明细，随 error 事件回给客户端。
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message format: %v", e.Fields)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidMessage }

// MessageRouter 是消息入站的核心状态机：
// 鉴权 -> 结构校验 -> 发送方纠偏 -> 策略检查 -> 限速准入 -> 去重 -> 落库 -> 投递。
type MessageRouter struct {
	db    *gorm.DB
	clock *SenderClock
	hub   Delivery
}

func NewMessageRouter(db *gorm.DB, hub Delivery) *MessageRouter {
	return &MessageRouter{
		db:    db,
		clock: NewSenderClock(MinSendInterval, 2*time.Minute),
		hub:   hub,
	}
}

// Clock 暴露限速时钟，便于停服时回收。
func (r *MessageRouter) Clock() *SenderClock { return r.clock }

// RouteResult 描述一条被接受消息的最终去向。
type RouteResult struct {
	Delivered bool
	Duplicate bool
}

// Route 处理一条入站消息。返回错误时消息未被接受，由调用方转成 error 事件；
// 重复 ID 不算错误，静默吸收，保证客户端重发安全。
func (r *MessageRouter) Route(sender *Identity, msg *DirectMessage) (*RouteResult, error) {
	if sender == nil {
		metrics.MessagesRejectedTotal.WithLabelValues("unauthorized").Inc()
		return nil, ErrUnauthenticated
	}

	if fields := validateMessage(msg); len(fields) > 0 {
		metrics.MessagesRejectedTotal.WithLabelValues("invalid").Inc()
		return nil, &ValidationError{Fields: fields}
	}

	// 发送方身份以连接绑定的为准，载荷里的 from 不可信；
	// 纠偏而非拒绝，同时记录安全事件供审计。
	if msg.From != sender.Username {
		log.Warn().
			Str("claimed", msg.From).
			Str("actual", sender.Username).
			Msg("blocked spoofing attempt")
		msg.From = sender.Username
	}

	// 规范化只用于路由与策略检查，落库保留原始大小写。
	from := NormalizeUsername(msg.From)
	to := NormalizeUsername(msg.To)

	if to == "" {
		metrics.MessagesRejectedTotal.WithLabelValues("recipient_required").Inc()
		return nil, ErrRecipientRequired
	}
	if from == to {
		metrics.MessagesRejectedTotal.WithLabelValues("self_message").Inc()
		return nil, ErrSelfMessage
	}
	if strings.TrimSpace(msg.Content) == "" {
		metrics.MessagesRejectedTotal.WithLabelValues("empty_content").Inc()
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(msg.Content) > MaxContentLength {
		metrics.MessagesRejectedTotal.WithLabelValues("content_too_long").Inc()
		return nil, ErrContentTooLong
	}

	if !r.clock.Allow(from) {
		metrics.MessagesRejectedTotal.WithLabelValues("rate_limited").Inc()
		return nil, ErrRateLimited
	}

	var count int64
	if err := r.db.Model(&models.Message{}).Where("id = ?", msg.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		log.Debug().Str("id", msg.ID).Str("from", from).Msg("duplicate message id, dropped")
		return &RouteResult{Duplicate: true}, nil
	}

	msg.Status = models.StatusSent
	rec := models.Message{
		ID:                msg.ID,
		SenderUsername:    msg.From,
		RecipientUsername: msg.To,
		Content:           msg.Content,
		Status:            models.StatusSent,
		ContentType:       msg.ContentType,
		Transport:         msg.Transport,
		Timestamp:         msg.Timestamp,
	}
	if err := r.db.Create(&rec).Error; err != nil {
		return nil, err
	}
	metrics.MessagesRoutedTotal.Inc()

	if r.hub.DeliverMessage(to, msg) {
		if err := r.db.Model(&models.Message{}).Where("id = ?", msg.ID).
			Update("status", models.StatusDelivered).Error; err != nil {
			log.Error().Err(err).Str("id", msg.ID).Msg("mark delivered")
		}
		metrics.MessagesDeliveredTotal.Inc()
		return &RouteResult{Delivered: true}, nil
	}
	return &RouteResult{Delivered: false}, nil
}

func validateMessage(msg *DirectMessage) []string {
	var fields []string
	if msg.ID == "" {
		fields = append(fields, "id")
	}
	if msg.From == "" {
		fields = append(fields, "from")
	}
	if msg.To == "" {
		fields = append(fields, "to")
	}
	// content 空串属于策略问题而不是结构问题，交给后面的策略检查回答
	if msg.Timestamp.IsZero() {
		fields = append(fields, "timestamp")
	}
	if msg.Status != "" && models.StatusRank(msg.Status) < 0 {
		fields = append(fields, "status")
	}
	return fields
}
