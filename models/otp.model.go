package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP channels
const (
	ChannelPhone = "phone"
	ChannelEmail = "email"
)

// OTP is an ephemeral verification code, at most one live record per (contact, channel)
type OTP struct {
	gorm.Model
	Contact   string    `gorm:"size:100;index:idx_otp_contact_channel;not null" json:"contact"`
	Channel   string    `gorm:"size:10;index:idx_otp_contact_channel;not null" json:"channel"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	Attempts  int       `gorm:"default:0" json:"attempts"`
	Verified  bool      `gorm:"default:false" json:"verified"`
}

func (OTP) TableName() string {
	return "otps"
}
