package models

import (
	"time"

	"gorm.io/datatypes"
)

// ExportFilter is the frozen filter a public export link serves
type ExportFilter struct {
	Status         string   `json:"status,omitempty"`
	EmployeeStatus string   `json:"employeeStatus,omitempty"`
	OutletIDs      []uint   `json:"outletIds,omitempty"`
	RoleID         *uint    `json:"roleId,omitempty"`
	Search         string   `json:"search,omitempty"`
	From           string   `json:"from,omitempty"`
	To             string   `json:"to,omitempty"`
	Fields         []string `json:"fields,omitempty"`
}

// ExportToken maps a public token to a filter snapshot
type ExportToken struct {
	Token     string                           `gorm:"primaryKey;size:64" json:"token"`
	Filter    datatypes.JSONType[ExportFilter] `json:"filter"`
	IssuedBy  uint                             `gorm:"not null" json:"issuedBy"`
	ExpiresAt time.Time                        `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time                        `json:"createdAt"`
}

func (ExportToken) TableName() string {
	return "export_tokens"
}
