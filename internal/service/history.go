package service

import (
	"github.com/d4rkarmy8/OffTheGrid/internal/models"
	"gorm.io/gorm"
)

// DefaultHistoryLimit 是单次历史查询返回的最大消息数。
const DefaultHistoryLimit = 50

// HistoryService 查询两个用户之间的消息历史，并在查询时推进已读状态。
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// GetHistory 返回 username 与 contact 之间按时间升序的消息。
// 副作用：contact 发给 username 的未读消息在本次查询后标记为 read —
// 拉取历史即视为已读回执，没有单独的确认事件。
func (s *HistoryService) GetHistory(username, contact string, limit int) ([]DirectMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = DefaultHistoryLimit
	}

	var msgs []models.Message
	err := s.db.
		Where("(sender_username = ? AND recipient_username = ?) OR (sender_username = ? AND recipient_username = ?)",
			username, contact, contact, username).
		Order("timestamp asc").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	// 读回执只覆盖本次真正取到的消息，limit 之外的未读保持原状；
	// 状态只向前推进，已经是 read 的不再改写。
	var unread []string
	for _, m := range msgs {
		if m.RecipientUsername == username && m.Status != models.StatusRead {
			unread = append(unread, m.ID)
		}
	}
	if len(unread) > 0 {
		err = s.db.Model(&models.Message{}).
			Where("id IN ?", unread).
			Update("status", models.StatusRead).Error
		if err != nil {
			return nil, err
		}
	}

	out := make([]DirectMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, DirectMessage{
			ID:          m.ID,
			From:        m.SenderUsername,
			To:          m.RecipientUsername,
			Content:     m.Content,
			Timestamp:   m.Timestamp,
			Status:      m.Status,
			ContentType: m.ContentType,
			Transport:   m.Transport,
		})
	}
	return out, nil
}
