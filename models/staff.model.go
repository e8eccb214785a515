package models

import (
	"time"

	"gorm.io/gorm"
)

// Principal roles
const (
	RoleSuperAdmin   = "super_admin"
	RoleFieldCoach   = "field_coach"
	RoleStoreManager = "store_manager"
	RoleCandidate    = "candidate"
)

// StaffRoles are the roles a StaffAccount can hold
var StaffRoles = []string{RoleSuperAdmin, RoleFieldCoach, RoleStoreManager}

// StaffAccount is a human staff login
type StaffAccount struct {
	gorm.Model
	Name                string     `gorm:"size:150;not null" json:"name"`
	Email               string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone               string     `gorm:"size:15" json:"phone"`
	Password            string     `gorm:"not null" json:"-"`
	Role                string     `gorm:"size:30;not null;index" json:"role"`
	IsActive            bool       `gorm:"default:true" json:"isActive"`
	LastLogin           *time.Time `json:"lastLogin"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	BlockedUntil        *time.Time `json:"-"`
}

func (StaffAccount) TableName() string {
	return "staff_accounts"
}
