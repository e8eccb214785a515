package models

import (
	"gorm.io/gorm"
)

// RoleDefinition is a job role a candidate applies for
type RoleDefinition struct {
	gorm.Model
	Title       string `gorm:"size:100;uniqueIndex;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:50;index" json:"category"` // kitchen, service, management...
	IsActive    bool   `gorm:"default:true" json:"isActive"`
}

func (RoleDefinition) TableName() string {
	return "role_definitions"
}
