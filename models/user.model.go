package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name                   string          `gorm:"default:''" json:"name"`
	Email                  string          `gorm:"unique;not null" json:"email"`
	Mobile                 string          `gorm:"unique;not null" json:"mobile"`
	Password               string          `gorm:"not null" json:"-"`
	Gender                 string          `gorm:"default:''" json:"gender"`
	DateOfBirth            *datatypes.Date `json:"dateOfBirth"`
	BloodGroup             string          `gorm:"default:''" json:"bloodGroup"`
	Address                string          `gorm:"default:''" json:"address"`
	InsuranceProvider      string          `gorm:"default:''" json:"insuranceProvider"`
	InsuranceNumber        string          `gorm:"default:''" json:"insuranceNumber"`
	EmergencyContactName   string          `gorm:"default:''" json:"emergencyContactName"`
	EmergencyContactNumber string          `gorm:"default:''" json:"emergencyContactNumber"`
	ProfileImage           []byte          `json:"-"` // opaque blob, upload handling lives at the transport edge
	IsMobileVerified       bool            `gorm:"default:false" json:"isMobileVerified"`
	IsEmailVerified        bool            `gorm:"default:false" json:"isEmailVerified"`
	IsDeleted              bool            `gorm:"default:false" json:"-"`
}
