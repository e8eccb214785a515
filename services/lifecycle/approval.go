package lifecycle

import (
	"context"
	"errors"
	"log"
	"strings"

	"hrms/apperror"
	"hrms/models"

	"gorm.io/gorm"
)

var reviewerRoles = []string{models.RoleSuperAdmin, models.RoleFieldCoach}

// Approve moves a submitted application to approved. The employee key is minted the first time
// a record is approved and never changes afterwards.
func (e *Engine) Approve(ctx context.Context, id uint, actor *models.Principal) (*models.Onboarding, error) {
	return e.transition(ctx, transitionRequest{
		id:    id,
		event: EventApprove,
		actor: actor,
		roles: reviewerRoles,
		guard: func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error) {
			return e.approveMutation(rec, actor.ID, actor.Role)
		},
	})
}

// Reject moves a submitted application to rejected. reason is required.
func (e *Engine) Reject(ctx context.Context, id uint, actor *models.Principal, reason string) (*models.Onboarding, error) {
	return e.transition(ctx, transitionRequest{
		id:    id,
		event: EventReject,
		actor: actor,
		roles: reviewerRoles,
		guard: func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error) {
			return e.rejectMutation(rec, actor.ID, reason)
		},
	})
}

// ApproveByToken approves through the emailed link. The outlet's field coach is recorded as the
// approver.
func (e *Engine) ApproveByToken(ctx context.Context, id uint, token string) (*models.Onboarding, error) {
	return e.byToken(ctx, id, token, EventApprove, func(rec *models.Onboarding, coachID uint) (*mutation, error) {
		return e.approveMutation(rec, coachID, models.RoleFieldCoach)
	})
}

// RejectByToken rejects through the emailed link.
func (e *Engine) RejectByToken(ctx context.Context, id uint, token, reason string) (*models.Onboarding, error) {
	return e.byToken(ctx, id, token, EventReject, func(rec *models.Onboarding, coachID uint) (*mutation, error) {
		return e.rejectMutation(rec, coachID, reason)
	})
}

// GetByToken returns the application behind an approval link without consuming it.
func (e *Engine) GetByToken(ctx context.Context, id uint, token string) (*models.Onboarding, error) {
	rec, err := loadForUpdate(e.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := verifyApprovalToken(rec, token, e.now()); err != nil {
		if errors.Is(err, errTokenExpired) {
			e.clearToken(ctx, rec.ID)
		}
		return nil, err
	}
	return rec, nil
}

func (e *Engine) byToken(ctx context.Context, id uint, token string, ev Event, build func(*models.Onboarding, uint) (*mutation, error)) (*models.Onboarding, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.Unauthenticated("Approval token is required!")
	}

	var actor *models.Principal
	out, err := e.transition(ctx, transitionRequest{
		id:    id,
		event: ev,
		guard: func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error) {
			if err := verifyApprovalToken(rec, token, e.now()); err != nil {
				return nil, err
			}
			var coachID uint
			if rec.Outlet != nil && rec.Outlet.FieldCoachID != nil {
				coachID = *rec.Outlet.FieldCoachID
			}
			actor = &models.Principal{ID: coachID, Role: models.RoleFieldCoach, Kind: models.PrincipalStaff}
			return build(rec, coachID)
		},
		eventActor: func() *models.Principal { return actor },
	})
	if errors.Is(err, errTokenExpired) {
		e.clearToken(ctx, id)
	}
	return out, err
}

// approveMutation and rejectMutation both clear the approval token so a link cannot be replayed.
func (e *Engine) approveMutation(rec *models.Onboarding, actorID uint, actorRole string) (*mutation, error) {
	now := e.now()
	m := &mutation{status: models.StatusApproved, employee: models.EmployeeActive}
	m.set("approved_by", actorID)
	m.set("approved_by_role", actorRole)
	m.set("approval_date", now)
	if rec.JoinDate == nil {
		m.set("join_date", now)
	}
	clearTokenFields(m)

	payload := candidatePayload(rec)
	if rec.EmployeeKey == nil {
		key, err := newEmployeeKey(now)
		if err != nil {
			return nil, apperror.Internal("Failed to generate employee key!", err)
		}
		m.set("employee_key", key)
		payload["employeeKey"] = key
	}
	m.emit(models.EventApplicationApproved, payload)
	return m, nil
}

func (e *Engine) rejectMutation(rec *models.Onboarding, actorID uint, reason string) (*mutation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.ValidationFields(map[string]string{"reason": "Rejection reason is required!"})
	}
	m := &mutation{status: models.StatusRejected}
	m.set("rejected_by", actorID)
	m.set("rejected_at", e.now())
	m.set("rejection_reason", reason)
	clearTokenFields(m)

	payload := candidatePayload(rec)
	payload["reason"] = reason
	m.emit(models.EventApplicationRejected, payload)
	return m, nil
}

func clearTokenFields(m *mutation) {
	m.set("approval_token_hash", "")
	m.set("approval_token_expiry", nil)
}

// clearToken drops an expired token. The transition that found it has already rolled back.
func (e *Engine) clearToken(ctx context.Context, id uint) {
	err := e.db.WithContext(ctx).Model(&models.Onboarding{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"approval_token_hash": "", "approval_token_expiry": nil}).Error
	if err != nil {
		log.Printf("[LIFECYCLE] failed to clear expired approval token of %d: %v", id, err)
	}
}

// ClearExpiredTokens drops approval tokens past their expiry. The applications stay in
// pending_approval; staff can still decide or re-dispatch them.
func (e *Engine) ClearExpiredTokens(ctx context.Context) (int64, error) {
	res := e.db.WithContext(ctx).Model(&models.Onboarding{}).
		Where("approval_token_hash <> '' AND approval_token_expiry < ?", e.now()).
		Updates(map[string]interface{}{"approval_token_hash": "", "approval_token_expiry": nil})
	if res.Error != nil {
		return 0, apperror.Internal("Failed to clear expired approval tokens!", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("[LIFECYCLE] cleared %d expired approval tokens", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
