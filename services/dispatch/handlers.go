package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"

	"hrms/models"
	"hrms/utils"

	"gorm.io/gorm"
)

func (d *Dispatcher) handle(ctx context.Context, ev *models.LifecycleEvent) error {
	var rec models.Onboarding
	err := d.db.WithContext(ctx).
		Preload("Outlet", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Role", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&rec, ev.OnboardingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[DISPATCH] onboarding %d of event %s no longer exists", ev.OnboardingID, ev.EventID)
		return nil
	}
	if err != nil {
		return err
	}

	switch ev.Type {
	case models.EventApplicationSubmitted:
		return d.mail(rec.Email, utils.ApplicationReceivedEmail(rec.FullName, outletName(&rec)))

	case models.EventApprovalRequested:
		to, _ := ev.Payload["coachEmail"].(string)
		coach, _ := ev.Payload["coachName"].(string)
		link, _ := ev.Payload["approvalLink"].(string)
		if link == "" {
			return fmt.Errorf("approval link missing from event")
		}
		return d.mail(to, utils.ApprovalRequestEmail(coach, rec.FullName, outletName(&rec), roleTitle(&rec), link))

	case models.EventApplicationApproved:
		if err := d.provision(ctx, &rec); err != nil {
			return err
		}
		return d.mail(rec.Email, utils.ApplicationApprovedEmail(rec.FullName, deref(rec.EmployeeKey), outletName(&rec), roleTitle(&rec)))

	case models.EventApplicationRejected:
		return d.mail(rec.Email, utils.ApplicationRejectedEmail(rec.FullName, deref(rec.RejectionReason)))

	case models.EventDeactivationRequest:
		coach, err := d.fieldCoach(ctx, &rec)
		if err != nil || coach == nil {
			return err
		}
		reason, _ := ev.Payload["reason"].(string)
		return d.mail(coach.Email, utils.DeactivationRequestEmail(coach.Name, rec.FullName, outletName(&rec), reason))

	case models.EventDeactivationApproved:
		if err := d.deprovision(ctx, &rec); err != nil {
			return err
		}
		return d.mailManager(ctx, &rec, utils.DeactivationDecisionEmail(rec.FullName, true, ""))

	case models.EventDeactivationRejected:
		note, _ := ev.Payload["rejectionReason"].(string)
		return d.mailManager(ctx, &rec, utils.DeactivationDecisionEmail(rec.FullName, false, note))

	case models.EventEmployeeDeactivated:
		if err := d.deprovision(ctx, &rec); err != nil {
			return err
		}
		return d.mail(rec.Email, utils.EmploymentEndedEmail(rec.FullName, "deactivated", deref(rec.DeactivationReason)))

	case models.EventEmployeeTerminated:
		if err := d.deprovision(ctx, &rec); err != nil {
			return err
		}
		return d.mail(rec.Email, utils.EmploymentEndedEmail(rec.FullName, "terminated", deref(rec.TerminationReason)))

	case models.EventEmployeeRehired:
		if err := d.provision(ctx, &rec); err != nil {
			return err
		}
		return d.mail(rec.Email, utils.RehiredEmail(rec.FullName, outletName(&rec)))
	}

	log.Printf("[DISPATCH] no handler for event type %s", ev.Type)
	return nil
}

func (d *Dispatcher) mail(to string, content utils.EmailContent) error {
	if to == "" || d.mailer == nil {
		return nil
	}
	return d.mailer.Send([]string{to}, content)
}

// mailManager writes to the outlet's manager, falling back to the outlet mailbox.
func (d *Dispatcher) mailManager(ctx context.Context, rec *models.Onboarding, content utils.EmailContent) error {
	if rec.Outlet == nil {
		return nil
	}
	to := rec.Outlet.Email
	if rec.Outlet.ManagerID != nil {
		var manager models.StaffAccount
		if err := d.db.WithContext(ctx).First(&manager, *rec.Outlet.ManagerID).Error; err == nil && manager.Email != "" {
			to = manager.Email
		}
	}
	return d.mail(to, content)
}

func (d *Dispatcher) fieldCoach(ctx context.Context, rec *models.Onboarding) (*models.StaffAccount, error) {
	if rec.Outlet == nil || rec.Outlet.FieldCoachID == nil {
		return nil, nil
	}
	var coach models.StaffAccount
	err := d.db.WithContext(ctx).First(&coach, *rec.Outlet.FieldCoachID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coach, nil
}

// provision creates the training account once; the id is kept on the record.
func (d *Dispatcher) provision(ctx context.Context, rec *models.Onboarding) error {
	if d.lms == nil || rec.LMSUserID != "" || rec.EmployeeKey == nil {
		return nil
	}
	id, err := d.lms.CreateAccount(ctx, utils.LMSAccount{
		EmployeeKey: *rec.EmployeeKey,
		Name:        rec.FullName,
		Email:       rec.Email,
		Phone:       rec.Phone,
		Role:        roleTitle(rec),
		OutletCode:  outletCode(rec),
	})
	if err != nil {
		return fmt.Errorf("lms provisioning: %w", err)
	}
	rec.LMSUserID = id
	return d.db.WithContext(ctx).Model(&models.Onboarding{}).Where("id = ?", rec.ID).Update("lms_user_id", id).Error
}

func (d *Dispatcher) deprovision(ctx context.Context, rec *models.Onboarding) error {
	if d.lms == nil || rec.LMSUserID == "" {
		return nil
	}
	if err := d.lms.DeactivateAccount(ctx, rec.LMSUserID); err != nil {
		return fmt.Errorf("lms deactivation: %w", err)
	}
	return nil
}

func outletName(rec *models.Onboarding) string {
	if rec.Outlet == nil {
		return ""
	}
	return rec.Outlet.Name
}

func outletCode(rec *models.Onboarding) string {
	if rec.Outlet == nil {
		return ""
	}
	return rec.Outlet.Code
}

func roleTitle(rec *models.Onboarding) string {
	if rec.Role == nil {
		return ""
	}
	return rec.Role.Title
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
