package lifecycle

import (
	"time"

	"hrms/apperror"
	"hrms/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Employment end reasons
const (
	EndReasonTerminated  = "terminated"
	EndReasonDeactivated = "deactivated"
)

// archiveEntry snapshots the current stint. ok is false when the record has no outlet or role
// to archive.
func archiveEntry(rec *models.Onboarding, endReason string, endDate time.Time, reason, notes string) (models.EmploymentRecord, bool) {
	if rec.Outlet == nil || rec.Role == nil {
		return models.EmploymentRecord{}, false
	}
	return models.EmploymentRecord{
		Role:              rec.Role.Title,
		Outlet:            models.OutletSnapshot{Name: rec.Outlet.Name, Code: rec.Outlet.Code},
		JoinDate:          joinDateOf(rec),
		EndDate:           endDate,
		EndReason:         endReason,
		TerminationReason: reason,
		PerformanceNotes:  notes,
	}, true
}

func joinDateOf(rec *models.Onboarding) *time.Time {
	if rec.JoinDate != nil {
		return rec.JoinDate
	}
	return rec.ApprovalDate
}

// withArchived returns the history column value with entry appended.
func withArchived(rec *models.Onboarding, entry models.EmploymentRecord) datatypes.JSONType[[]models.EmploymentRecord] {
	current := rec.History()
	next := make([]models.EmploymentRecord, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, entry)
	return datatypes.NewJSONType(next)
}

// priorHistory finds the most recently terminated record sharing the Aadhaar number and
// returns its previousEmployment.
func priorHistory(tx *gorm.DB, rec *models.Onboarding) ([]models.EmploymentRecord, error) {
	if rec.AadhaarNumber == "" {
		return nil, nil
	}

	var prior models.Onboarding
	err := tx.Where("aadhaar_number = ? AND employee_status = ? AND id <> ?",
		rec.AadhaarNumber, models.EmployeeTerminated, rec.ID).
		Order("CASE WHEN terminated_at IS NULL THEN 1 ELSE 0 END").
		Order("terminated_at DESC").
		Order("id DESC").
		First(&prior).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal("Failed to look up previous employment!", err)
	}
	return prior.History(), nil
}
