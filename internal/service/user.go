package service

import (
	"errors"

	"github.com/d4rkarmy8/OffTheGrid/internal/auth"
	"github.com/d4rkarmy8/OffTheGrid/internal/config"
	"github.com/d4rkarmy8/OffTheGrid/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// UserService 封装注册、登录与用户状态相关的业务逻辑。
type UserService struct {
	db  *gorm.DB
	cfg config.Config
}

func NewUserService(db *gorm.DB, cfg config.Config) *UserService {
	return &UserService{db: db, cfg: cfg}
}

// RegisterResult 注册成功后返回的数据。
type RegisterResult struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Register 创建新用户。密码只保存 bcrypt 哈希，注册成功不会自动登录。
func (s *UserService) Register(username, password string) (*RegisterResult, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		// 重复注册按安全相关事件记录，便于审计。
		log.Warn().Str("username", username).Msg("register rejected: username taken")
		return nil, ErrUsernameTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{ID: uuid.NewString(), Username: username, PasswordHash: hash}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &RegisterResult{UserID: user.ID, Username: user.Username}, nil
}

// LoginResult 登录成功后返回的数据。
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

// Login 校验用户名密码并签发访问令牌。
func (s *UserService) Login(username, password string) (*LoginResult, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	token, err := auth.GenerateToken(user.ID, user.Username, s.cfg.JWTSecret, s.cfg.TokenTTLMinutes)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Username: user.Username, UserID: user.ID}, nil
}

// AllUsersStatus 返回除请求者之外所有用户的在线状态快照。
func (s *UserService) AllUsersStatus(currentUser string, presence Presence) ([]UserStatus, error) {
	var users []models.User
	if err := s.db.Select("id", "username").Find(&users).Error; err != nil {
		return nil, err
	}
	current := NormalizeUsername(currentUser)
	out := make([]UserStatus, 0, len(users))
	for _, u := range users {
		norm := NormalizeUsername(u.Username)
		if norm == "" || norm == current {
			continue
		}
		status := StatusOffline
		if presence.IsOnline(norm) {
			status = StatusOnline
		}
		out = append(out, UserStatus{Username: u.Username, Status: status})
	}
	return out, nil
}
