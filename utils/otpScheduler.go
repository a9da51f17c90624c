package utils

import (
	"log"
	"medibook/config"
	"medibook/database"
	"medibook/models"
	"time"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[OTP-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// SweepExpiredOTPs hard-deletes challenges whose expiry has passed.
func SweepExpiredOTPs() {
	result := database.Database.Db.Unscoped().
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&models.OTP{})
	if result.Error != nil {
		logScheduler("Error purging expired challenges: " + result.Error.Error())
		return
	}
	if result.RowsAffected > 0 {
		logScheduler("Purged expired challenges")
	}
}

// StartOTPScheduler starts the periodic sweep of expired OTP challenges.
// Returns nil when no expiry is configured, in which case challenges
// accumulate until consumed.
func StartOTPScheduler() *cron.Cron {
	if config.AppConfig.OTPExpiryMinutes <= 0 {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc("@every 5m", SweepExpiredOTPs); err != nil {
		logScheduler("Error scheduling sweep: " + err.Error())
		return nil
	}
	c.Start()

	logScheduler("Started expired challenge sweep")
	return c
}
