package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyUploadAndLookup(t *testing.T) {
	db := newTestDB(t)
	svc := NewKeyService(db)
	alice := &Identity{UserID: "u-a", Username: "Alice"}

	rec, err := svc.Upload(alice, "sign-key-1", "enc-key-1", "")
	require.NoError(t, err)
	assert.Equal(t, "der-base64", rec.Format)

	// 查询方用任意大小写都能命中
	got, err := svc.Lookup("ALICE")
	require.NoError(t, err)
	assert.Equal(t, "sign-key-1", got.SigningKey)
	assert.Equal(t, "enc-key-1", got.EncryptionKey)
	assert.Equal(t, "u-a", got.UserID)
}

func TestKeyUpload_OverwritesPrevious(t *testing.T) {
	db := newTestDB(t)
	svc := NewKeyService(db)
	alice := &Identity{UserID: "u-a", Username: "alice"}

	_, err := svc.Upload(alice, "sign-old", "enc-old", "der-base64")
	require.NoError(t, err)
	_, err = svc.Upload(alice, "sign-new", "enc-new", "pem")
	require.NoError(t, err)

	got, err := svc.Lookup("alice")
	require.NoError(t, err)
	assert.Equal(t, "sign-new", got.SigningKey)
	assert.Equal(t, "enc-new", got.EncryptionKey)
	assert.Equal(t, "pem", got.Format)
}

func TestKeyLookup_Unknown(t *testing.T) {
	db := newTestDB(t)
	_, err := NewKeyService(db).Lookup("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
