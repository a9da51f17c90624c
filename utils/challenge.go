package utils

import (
	"errors"
	"log"
	"medibook/config"
	"medibook/database"
	"medibook/models"
	"time"
)

var (
	// ErrChallengeUnavailable covers a missing, expired, consumed or
	// exhausted challenge. Callers cannot tell which.
	ErrChallengeUnavailable = errors.New("challenge unavailable")
	// ErrInvalidCode means the challenge exists but the submitted code does
	// not match; the challenge stays usable.
	ErrInvalidCode = errors.New("invalid code")
)

// CreateChallenge allocates a new OTP challenge for the user and returns it
// together with the derived code to deliver. The secret never leaves the
// server; callers hand out only the record ID.
func CreateChallenge(userID uint, purpose string) (*models.OTP, string, error) {
	otp := models.OTP{
		UserID:  userID,
		Secret:  NewOTPSecret(),
		Purpose: purpose,
	}
	if config.AppConfig.OTPExpiryMinutes > 0 {
		expiresAt := time.Now().Add(time.Duration(config.AppConfig.OTPExpiryMinutes) * time.Minute)
		otp.ExpiresAt = &expiresAt
	}

	if err := database.Database.Db.Create(&otp).Error; err != nil {
		return nil, "", err
	}

	return &otp, GenerateCode(otp.Secret), nil
}

// VerifyChallenge runs the verification protocol shared by every confirm
// flow: load the challenge (scoped to a user when one is known), reject if
// missing or expired, bump the attempt counter, compare the code. A wrong
// code leaves the challenge in place so the caller may retry with the same
// ID. The caller performs its state transition first and then consumes the
// returned challenge.
func VerifyChallenge(challengeID uint, userID *uint, purpose, code string) (*models.OTP, error) {
	db := database.Database.Db

	var otp models.OTP
	query := db.Where("id = ? AND purpose = ?", challengeID, purpose)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if err := query.First(&otp).Error; err != nil {
		return nil, ErrChallengeUnavailable
	}

	if otp.ExpiresAt != nil && otp.ExpiresAt.Before(time.Now()) {
		return nil, ErrChallengeUnavailable
	}

	otp.Attempts++
	if err := db.Model(&otp).Update("attempts", otp.Attempts).Error; err != nil {
		log.Printf("Error recording OTP attempt for challenge %d: %v", otp.ID, err)
	}
	if config.AppConfig.OTPMaxAttempts > 0 && otp.Attempts > config.AppConfig.OTPMaxAttempts {
		ConsumeChallenge(&otp)
		return nil, ErrChallengeUnavailable
	}

	if !VerifyCode(otp.Secret, code) {
		return nil, ErrInvalidCode
	}

	return &otp, nil
}

// ConsumeChallenge deletes the challenge so its ID can never verify again.
// Best effort: a verification that already succeeded is not rolled back
// because cleanup failed.
func ConsumeChallenge(otp *models.OTP) {
	if err := database.Database.Db.Delete(otp).Error; err != nil {
		log.Printf("Error consuming OTP challenge %d: %v", otp.ID, err)
	}
}
