package service

import (
	"sort"

	"github.com/d4rkarmy8/OffTheGrid/internal/models"
	"gorm.io/gorm"
)

// InboxService 从持久化的消息日志按需重建每个联系人的会话摘要。
type InboxService struct {
	db *gorm.DB
}

func NewInboxService(db *gorm.DB) *InboxService {
	return &InboxService{db: db}
}

// GetInbox 返回用户的会话列表：每个联系人取最近一条消息做预览，
// 未读数只统计发给该用户且尚未 read 的消息，按最近时间倒序排列。
// 结果是调用时刻的快照，不做增量维护。
func (s *InboxService) GetInbox(username string) ([]Conversation, error) {
	var msgs []models.Message
	err := s.db.
		Where("sender_username = ? OR recipient_username = ?", username, username).
		Order("timestamp desc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	byContact := make(map[string]*Conversation)
	for _, m := range msgs {
		contact := m.SenderUsername
		if m.SenderUsername == username {
			contact = m.RecipientUsername
		}
		conv, ok := byContact[contact]
		if !ok {
			// 消息按时间倒序遍历，首次遇到的就是该会话的最新一条。
			conv = &Conversation{
				Contact:            contact,
				LastMessagePreview: m.Content,
				LastTimestamp:      m.Timestamp,
			}
			byContact[contact] = conv
		}
		if m.RecipientUsername == username && m.Status != models.StatusRead {
			conv.UnreadCount++
		}
	}

	out := make([]Conversation, 0, len(byContact))
	for _, conv := range byContact {
		out = append(out, *conv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastTimestamp.After(out[j].LastTimestamp)
	})
	return out, nil
}
