package service

import (
	"errors"
	"time"

	"github.com/d4rkarmy8/OffTheGrid/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeyService 维护用户公钥目录。服务端只做存取，不校验也不使用密钥内容。
type KeyService struct {
	db *gorm.DB
}

func NewKeyService(db *gorm.DB) *KeyService {
	return &KeyService{db: db}
}

const defaultKeyFormat = "der-base64"

// Upload 保存（或覆盖）用户的签名公钥与加密公钥。
func (s *KeyService) Upload(id *Identity, signingKey, encryptionKey, format string) (*models.PublicKey, error) {
	if format == "" {
		format = defaultKeyFormat
	}
	rec := models.PublicKey{
		UserID: id.UserID,
		// 用户名按规范化形式保存，查询方同样先规范化。
		Username:      NormalizeUsername(id.Username),
		SigningKey:    signingKey,
		EncryptionKey: encryptionKey,
		Format:        format,
		UpdatedAt:     time.Now().UTC(),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "signing_key", "encryption_key", "format", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Lookup 按用户名查询公钥记录。
func (s *KeyService) Lookup(username string) (*models.PublicKey, error) {
	var rec models.PublicKey
	err := s.db.Where("username = ?", NormalizeUsername(username)).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &rec, nil
}
