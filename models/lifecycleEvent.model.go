package models

import (
	"time"

	"gorm.io/datatypes"
)

// Lifecycle event types written to the outbox
const (
	EventApplicationSubmitted = "application_submitted"
	EventApprovalRequested    = "approval_requested"
	EventApplicationApproved  = "application_approved"
	EventApplicationRejected  = "application_rejected"
	EventEmployeeTerminated   = "employee_terminated"
	EventDeactivationRequest  = "deactivation_requested"
	EventDeactivationApproved = "deactivation_approved"
	EventDeactivationRejected = "deactivation_rejected"
	EventEmployeeDeactivated  = "employee_deactivated"
	EventEmployeeRehired      = "employee_rehired"
)

// LifecycleEvent is an outbox row, written in the same transaction as the transition
type LifecycleEvent struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	EventID      string            `gorm:"size:36;uniqueIndex;not null" json:"eventId"`
	Type         string            `gorm:"size:40;not null;index" json:"type"`
	OnboardingID uint              `gorm:"not null;index" json:"onboardingId"`
	ActorID      *uint             `json:"actorId"`
	ActorRole    string            `gorm:"size:30" json:"actorRole"`
	Payload      datatypes.JSONMap `json:"payload"`
	Sensitive    bool              `gorm:"default:false" json:"-"`
	Attempts     int               `gorm:"default:0" json:"attempts"`
	LastError    string            `gorm:"type:text" json:"lastError,omitempty"`
	DispatchedAt *time.Time        `gorm:"index" json:"dispatchedAt"`
	CreatedAt    time.Time         `json:"createdAt"`
}

func (LifecycleEvent) TableName() string {
	return "lifecycle_events"
}
