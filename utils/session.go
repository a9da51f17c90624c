package utils

import (
	"medibook/config"
	"medibook/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MintClient creates a new client session with a fresh opaque token.
func MintClient(db *gorm.DB, userID uint, userAgent string) (models.Client, error) {
	client := models.Client{
		UserID:    userID,
		Token:     uuid.NewString(),
		UserAgent: userAgent,
	}
	if err := db.Create(&client).Error; err != nil {
		return models.Client{}, err
	}
	return client, nil
}

// RevokeClient invalidates a session, hard or soft per configuration.
// Revoking an already revoked client is a no-op.
func RevokeClient(db *gorm.DB, client *models.Client) error {
	if config.AppConfig.SessionHardDelete {
		return db.Unscoped().Delete(client).Error
	}
	if client.IsDeleted {
		return nil
	}
	client.IsDeleted = true
	return db.Model(client).Update("is_deleted", true).Error
}

// EstablishSession revokes any live client for the same device and mints a
// fresh one, so exactly one non-deleted client exists per (user, device)
// after a login completes.
func EstablishSession(db *gorm.DB, userID uint, userAgent string) (models.Client, error) {
	var existing []models.Client
	if err := db.Where("user_id = ? AND user_agent = ? AND is_deleted = ?", userID, userAgent, false).
		Find(&existing).Error; err != nil {
		return models.Client{}, err
	}
	for i := range existing {
		if err := RevokeClient(db, &existing[i]); err != nil {
			return models.Client{}, err
		}
	}
	return MintClient(db, userID, userAgent)
}

// RevokeAllForUser revokes every live client belonging to the user.
func RevokeAllForUser(db *gorm.DB, userID uint) error {
	if config.AppConfig.SessionHardDelete {
		return db.Unscoped().Where("user_id = ?", userID).Delete(&models.Client{}).Error
	}
	return db.Model(&models.Client{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Update("is_deleted", true).Error
}
