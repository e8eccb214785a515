package models

import (
	"time"

	"gorm.io/gorm"
)

// LoginTracking records one successful staff or outlet login
type LoginTracking struct {
	gorm.Model
	PrincipalID   uint      `gorm:"index:idx_login_principal" json:"principalId"`
	PrincipalKind string    `gorm:"size:20;index:idx_login_principal" json:"principalKind"`
	IPAddress     string    `gorm:"size:64" json:"ipAddress"`
	Device        string    `gorm:"size:255" json:"device"`
	Timestamp     time.Time `json:"timestamp"`
}

func (LoginTracking) TableName() string {
	return "login_trackings"
}
