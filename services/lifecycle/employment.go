package lifecycle

import (
	"context"
	"strings"

	"hrms/apperror"
	"hrms/models"

	"gorm.io/gorm"
)

// TerminateInput is the reason and optional notes archived with the ended stint.
type TerminateInput struct {
	Reason           string
	PerformanceNotes string
}

// Terminate ends employment of an approved record and archives the current stint.
func (e *Engine) Terminate(ctx context.Context, id uint, actor *models.Principal, in TerminateInput) (*models.Onboarding, error) {
	return e.transition(ctx, transitionRequest{
		id:    id,
		event: EventTerminate,
		actor: actor,
		roles: reviewerRoles,
		guard: func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error) {
			reason, err := requireReason(in.Reason, "Termination reason is required!")
			if err != nil {
				return nil, err
			}
			now := e.now()
			m := &mutation{status: models.StatusTerminated, employee: models.EmployeeTerminated}
			m.set("terminated_by", actor.ID)
			m.set("terminated_at", now)
			m.set("termination_reason", reason)

			if entry, ok := archiveEntry(rec, EndReasonTerminated, now, reason, strings.TrimSpace(in.PerformanceNotes)); ok {
				m.set("previous_employment", withArchived(rec, entry))
			}

			payload := candidatePayload(rec)
			payload["reason"] = reason
			m.emit(models.EventEmployeeTerminated, payload)
			return m, nil
		},
	})
}

// RequestDeactivation is raised by the store manager of the employee's outlet.
func (e *Engine) RequestDeactivation(ctx context.Context, id uint, actor *models.Principal, reason string) (*models.Onboarding, error) {
	return e.transition(ctx, transitionRequest{
		id:    id,
		event: EventRequestDeactivation,
		actor: actor,
		roles: []string{models.RoleStoreManager, models.RoleSuperAdmin},
		guard: func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error) {
			reason, err := requireReason(reason, "Deactivation reason is required!")
			if err != nil {
				return nil, err
			}
			m := &mutation{employee: models.EmployeeDeactivationPending}
			m.set("deactivation_reason", reason)
			m.set("deactivation_requested_by", actor.ID)
			m.set("deactivation_requested_by_kind", actor.Kind)
			m.set("deactivation_requested_at", e.now())

			payload := candidatePayload(rec)
			payload["reason"] = reason
			payload["requestedBy"] = actor.ID
			payload["requestedByKind"] = actor.Kind
			m.emit(models.EventDeactivationRequest, payload)
			return m, nil
		},
	})
}

// ApproveDeactivation confirms a pending request.
func (e *Engine) ApproveDeactivation(ctx context.Context, id uint, actor *models.Principal) (*models.Onboarding, error) {
	return e.transition(ctx, transitionRequest{
		id:    id,
		event: EventApproveDeactivation,
		actor: actor,
		roles: reviewerRoles,
		guard: func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error) {
			m := &mutation{employee: models.EmployeeDeactivated}
			m.set("deactivation_approved_by", actor.ID)
			m.set("deactivated_at", e.now())
			m.emit(models.EventDeactivationApproved, deactivationPayload(rec))
			return m, nil
		},
	})
}

// RejectDeactivation returns the employee to active and clears the request.
func (e *Engine) RejectDeactivation(ctx context.Context, id uint, actor *models.Principal, reason string) (*models.Onboarding, error) {
	return e.transition(ctx, transitionRequest{
		id:    id,
		event: EventRejectDeactivation,
		actor: actor,
		roles: reviewerRoles,
		guard: func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error) {
			m := &mutation{employee: models.EmployeeActive}
			m.set("deactivation_reason", nil)
			m.set("deactivation_requested_by", nil)
			m.set("deactivation_requested_by_kind", nil)
			m.set("deactivation_requested_at", nil)

			payload := deactivationPayload(rec)
			if r := strings.TrimSpace(reason); r != "" {
				payload["rejectionReason"] = r
			}
			m.emit(models.EventDeactivationRejected, payload)
			return m, nil
		},
	})
}

// DeactivateDirect lets an admin skip the request step.
func (e *Engine) DeactivateDirect(ctx context.Context, id uint, actor *models.Principal, reason string) (*models.Onboarding, error) {
	return e.transition(ctx, transitionRequest{
		id:    id,
		event: EventDeactivate,
		actor: actor,
		roles: []string{models.RoleSuperAdmin},
		guard: func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error) {
			reason, err := requireReason(reason, "Deactivation reason is required!")
			if err != nil {
				return nil, err
			}
			now := e.now()
			m := &mutation{employee: models.EmployeeDeactivated}
			m.set("deactivation_reason", reason)
			m.set("deactivation_approved_by", actor.ID)
			m.set("deactivated_at", now)
			if rec.DeactivationRequestedBy == nil {
				m.set("deactivation_requested_by", actor.ID)
				m.set("deactivation_requested_by_kind", actor.Kind)
				m.set("deactivation_requested_at", now)
			}

			payload := candidatePayload(rec)
			payload["reason"] = reason
			m.emit(models.EventEmployeeDeactivated, payload)
			return m, nil
		},
	})
}

// Rehire revives a deactivated employee. The deactivated stint is archived first; the
// deactivation metadata stays on the record for reference.
func (e *Engine) Rehire(ctx context.Context, id uint, actor *models.Principal) (*models.Onboarding, error) {
	return e.transition(ctx, transitionRequest{
		id:    id,
		event: EventRehire,
		actor: actor,
		roles: []string{models.RoleSuperAdmin},
		guard: func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error) {
			now := e.now()
			endDate := now
			if rec.DeactivatedAt != nil {
				endDate = *rec.DeactivatedAt
			}
			var reason string
			if rec.DeactivationReason != nil {
				reason = *rec.DeactivationReason
			}

			m := &mutation{status: models.StatusApproved, employee: models.EmployeeActive}
			if entry, ok := archiveEntry(rec, EndReasonDeactivated, endDate, reason, ""); ok {
				m.set("previous_employment", withArchived(rec, entry))
			}
			m.set("rehired_by", actor.ID)
			m.set("rehired_at", now)
			m.set("join_date", now)

			m.emit(models.EventEmployeeRehired, candidatePayload(rec))
			return m, nil
		},
	})
}

func requireReason(reason, msg string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperror.ValidationFields(map[string]string{"reason": msg})
	}
	return reason, nil
}

func deactivationPayload(rec *models.Onboarding) map[string]interface{} {
	p := candidatePayload(rec)
	if rec.DeactivationReason != nil {
		p["reason"] = *rec.DeactivationReason
	}
	if rec.DeactivationRequestedBy != nil {
		p["requestedBy"] = *rec.DeactivationRequestedBy
		if rec.DeactivationRequestedByKind != nil {
			p["requestedByKind"] = *rec.DeactivationRequestedByKind
		}
	}
	return p
}
