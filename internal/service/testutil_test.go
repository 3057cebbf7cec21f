package service

import (
	"testing"
	"time"

	"github.com/d4rkarmy8/OffTheGrid/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 打开单连接的内存 sqlite，迁移全部表结构。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// 内存库每个连接各自独立，必须收敛到一条连接
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&models.User{}, &models.Message{}, &models.PublicKey{}))
	return gdb
}

// fakeHub 同时实现 Presence 和 Delivery，记录投递轨迹。
type fakeHub struct {
	online    map[string]bool
	delivered []*DirectMessage
}

func newFakeHub(onlineUsers ...string) *fakeHub {
	online := make(map[string]bool, len(onlineUsers))
	for _, u := range onlineUsers {
		online[u] = true
	}
	return &fakeHub{online: online}
}

func (f *fakeHub) IsOnline(username string) bool { return f.online[username] }

func (f *fakeHub) DeliverMessage(username string, msg *DirectMessage) bool {
	if !f.online[username] {
		return false
	}
	copied := *msg
	f.delivered = append(f.delivered, &copied)
	return true
}

func seedMessage(t *testing.T, db *gorm.DB, id, from, to, content, status string, ts time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.Message{
		ID:                id,
		SenderUsername:    from,
		RecipientUsername: to,
		Content:           content,
		Status:            status,
		Timestamp:         ts,
	}).Error)
}
