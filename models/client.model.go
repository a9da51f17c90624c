package models

import (
	"gorm.io/gorm"
)

// Client is one authenticated device. The (ID, Token) pair is the
// credential for every protected request.
type Client struct {
	gorm.Model
	UserID    uint   `gorm:"index;not null" json:"userId"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserAgent string `gorm:"default:''" json:"userAgent"`
	IsDeleted bool   `gorm:"default:false" json:"-"`
}
