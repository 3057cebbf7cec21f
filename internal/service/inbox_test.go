package service

import (
	"testing"
	"time"

	"github.com/d4rkarmy8/OffTheGrid/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInbox_Empty(t *testing.T) {
	db := newTestDB(t)
	inbox, err := NewInboxService(db).GetInbox("alice")
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestGetInbox_GroupsByContact(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// alice <-> bob：bob 发了两条未读，alice 回了一条
	seedMessage(t, db, "m1", "bob", "alice", "hey", models.StatusDelivered, base)
	seedMessage(t, db, "m2", "alice", "bob", "hi bob", models.StatusRead, base.Add(1*time.Minute))
	seedMessage(t, db, "m3", "bob", "alice", "how are you", models.StatusSent, base.Add(2*time.Minute))
	// carol -> alice：一条已读
	seedMessage(t, db, "m4", "carol", "alice", "ping", models.StatusRead, base.Add(3*time.Minute))
	// bob <-> carol 的会话与 alice 无关
	seedMessage(t, db, "m5", "bob", "carol", "noise", models.StatusSent, base.Add(4*time.Minute))

	inbox, err := NewInboxService(db).GetInbox("alice")
	require.NoError(t, err)
	require.Len(t, inbox, 2)

	// 按最近消息时间倒序：carol 的 m4 晚于 bob 的 m3
	assert.Equal(t, "carol", inbox[0].Contact)
	assert.Equal(t, "ping", inbox[0].LastMessagePreview)
	assert.Zero(t, inbox[0].UnreadCount)

	assert.Equal(t, "bob", inbox[1].Contact)
	assert.Equal(t, "how are you", inbox[1].LastMessagePreview)
	assert.Equal(t, base.Add(2*time.Minute), inbox[1].LastTimestamp.UTC())
	// 未读只数发给 alice 且状态非 read 的：m1 + m3
	assert.Equal(t, 2, inbox[1].UnreadCount)
}

func TestGetInbox_OwnMessagesNeverCountAsUnread(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seedMessage(t, db, "m1", "alice", "bob", "one", models.StatusSent, base)
	seedMessage(t, db, "m2", "alice", "bob", "two", models.StatusSent, base.Add(time.Minute))

	inbox, err := NewInboxService(db).GetInbox("alice")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "bob", inbox[0].Contact)
	assert.Zero(t, inbox[0].UnreadCount)
}

func TestGetInbox_UnreadMatchesPersistedLog(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	statuses := []string{models.StatusSent, models.StatusDelivered, models.StatusRead, models.StatusSent}
	for i, s := range statuses {
		seedMessage(t, db, "m"+string(rune('a'+i)), "carol", "alice", "msg", s, base.Add(time.Duration(i)*time.Minute))
	}

	inbox, err := NewInboxService(db).GetInbox("alice")
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	var want int64
	require.NoError(t, db.Model(&models.Message{}).
		Where("sender_username = ? AND recipient_username = ? AND status <> ?", "carol", "alice", models.StatusRead).
		Count(&want).Error)
	assert.EqualValues(t, want, inbox[0].UnreadCount)
}
