package models

import "time"

// 消息状态只允许向前推进：sent -> delivered -> read。
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// StatusRank 返回状态在推进链上的位置，未知状态返回 -1。
func StatusRank(status string) int {
	switch status {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	}
	return -1
}

type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time
}

// Message 的主键由客户端生成，重复投递按主键去重。
type Message struct {
	ID                string    `gorm:"primaryKey;size:64"`
	SenderUsername    string    `gorm:"index;size:50;not null"`
	RecipientUsername string    `gorm:"index;size:50;not null"`
	Content           string    `gorm:"type:text;not null"`
	Status            string    `gorm:"size:16;not null"`
	ContentType       string    `gorm:"size:32"`
	Transport         string    `gorm:"size:32"`
	Timestamp         time.Time `gorm:"index;not null"`
}

// PublicKey 保存用户上传的公钥目录，一个用户一行，重复上传覆盖。
type PublicKey struct {
	UserID        string    `gorm:"primaryKey;size:36"`
	Username      string    `gorm:"index;size:50"`
	SigningKey    string    `gorm:"type:text;not null"`
	EncryptionKey string    `gorm:"type:text;not null"`
	Format        string    `gorm:"size:32"`
	UpdatedAt     time.Time
}
