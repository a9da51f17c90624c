package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP challenge purposes
const (
	OTPPurposeMobileVerify  = "MOBILE_VERIFY"
	OTPPurposeEmailVerify   = "EMAIL_VERIFY"
	OTPPurposeLogin         = "LOGIN"
	OTPPurposePasswordReset = "PASSWORD_RESET"
)

// OTP is a single-use verification challenge. Only the record ID ever
// leaves the server; the delivered code is derived from Secret and a
// successful verification deletes the row.
type OTP struct {
	gorm.Model
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Secret    string     `gorm:"size:64;not null" json:"-"`
	Purpose   string     `gorm:"size:32;not null;index" json:"purpose"`
	Attempts  int        `gorm:"default:0" json:"-"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil means the challenge never expires
}
