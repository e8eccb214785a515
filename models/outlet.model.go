package models

import (
	"gorm.io/gorm"
)

// Outlet is a store location
type Outlet struct {
	gorm.Model
	Code         string        `gorm:"size:30;uniqueIndex;not null" json:"code"`
	Name         string        `gorm:"size:150;not null" json:"name"`
	Address      string        `gorm:"type:text" json:"address"`
	City         string        `gorm:"size:100;index" json:"city"`
	State        string        `gorm:"size:100" json:"state"`
	PinCode      string        `gorm:"size:10" json:"pinCode"`
	Phone        string        `gorm:"size:15" json:"phone"`
	Email        string        `gorm:"size:100" json:"email"`
	ManagerID    *uint         `gorm:"index" json:"managerId"`
	Manager      *StaffAccount `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	FieldCoachID *uint         `gorm:"index" json:"fieldCoachId"`
	FieldCoach   *StaffAccount `gorm:"foreignKey:FieldCoachID" json:"fieldCoach,omitempty"`
	PasswordHash string        `gorm:"size:100" json:"-"` // outlet-level login
	IsActive     bool          `gorm:"default:true" json:"isActive"`
}

func (Outlet) TableName() string {
	return "outlets"
}
