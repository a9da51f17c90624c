package utils

import (
	"medibook/config"
	"medibook/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintClient(t *testing.T) {
	db := setupTestDb(t)
	user := seedUser(t, db, "a@x.com", "+1000")

	first, err := MintClient(db, user.ID, "test-agent")
	require.NoError(t, err)
	second, err := MintClient(db, user.ID, "other-agent")
	require.NoError(t, err)

	assert.NotEmpty(t, first.Token)
	assert.NotEmpty(t, second.Token)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, user.ID, first.UserID)
}

func TestRevokeClient_softIsIdempotent(t *testing.T) {
	db := setupTestDb(t)
	user := seedUser(t, db, "a@x.com", "+1000")

	client, err := MintClient(db, user.ID, "test-agent")
	require.NoError(t, err)

	require.NoError(t, RevokeClient(db, &client))
	require.NoError(t, RevokeClient(db, &client))

	var found models.Client
	err = db.Where("id = ? AND is_deleted = ?", client.ID, false).First(&found).Error
	assert.Error(t, err, "revoked client must not resolve as live")

	// Row is retained for audit
	require.NoError(t, db.Where("id = ?", client.ID).First(&found).Error)
	assert.True(t, found.IsDeleted)
}

func TestRevokeClient_hardDeletePolicy(t *testing.T) {
	db := setupTestDb(t)
	config.AppConfig.SessionHardDelete = true
	user := seedUser(t, db, "a@x.com", "+1000")

	client, err := MintClient(db, user.ID, "test-agent")
	require.NoError(t, err)

	require.NoError(t, RevokeClient(db, &client))
	require.NoError(t, RevokeClient(db, &client))

	var count int64
	require.NoError(t, db.Unscoped().Model(&models.Client{}).Where("id = ?", client.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEstablishSession_singleLiveSessionPerDevice(t *testing.T) {
	db := setupTestDb(t)
	user := seedUser(t, db, "a@x.com", "+1000")

	first, err := EstablishSession(db, user.ID, "test-agent")
	require.NoError(t, err)
	second, err := EstablishSession(db, user.ID, "test-agent")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	var count int64
	require.NoError(t, db.Model(&models.Client{}).
		Where("user_id = ? AND user_agent = ? AND is_deleted = ?", user.ID, "test-agent", false).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEstablishSession_otherDevicesUntouched(t *testing.T) {
	db := setupTestDb(t)
	user := seedUser(t, db, "a@x.com", "+1000")

	_, err := EstablishSession(db, user.ID, "phone-agent")
	require.NoError(t, err)
	_, err = EstablishSession(db, user.ID, "laptop-agent")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Client{}).
		Where("user_id = ? AND is_deleted = ?", user.ID, false).
		Count(&count).Error)
	assert.Equal(t, int64(2), count, "multi-device sessions coexist")
}

func TestRevokeAllForUser(t *testing.T) {
	db := setupTestDb(t)
	user := seedUser(t, db, "a@x.com", "+1000")
	other := seedUser(t, db, "b@x.com", "+2000")

	_, err := MintClient(db, user.ID, "phone-agent")
	require.NoError(t, err)
	_, err = MintClient(db, user.ID, "laptop-agent")
	require.NoError(t, err)
	kept, err := MintClient(db, other.ID, "phone-agent")
	require.NoError(t, err)

	require.NoError(t, RevokeAllForUser(db, user.ID))

	var count int64
	require.NoError(t, db.Model(&models.Client{}).
		Where("user_id = ? AND is_deleted = ?", user.ID, false).
		Count(&count).Error)
	assert.Zero(t, count)

	var found models.Client
	require.NoError(t, db.Where("id = ? AND is_deleted = ?", kept.ID, false).First(&found).Error)
}
