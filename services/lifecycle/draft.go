package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hrms/apperror"
	"hrms/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DraftInput carries candidate profile fields. Empty strings and nil slices or ids leave the
// stored value untouched, so drafts can be saved step by step.
type DraftInput struct {
	Phone string

	FullName         string
	FatherName       string
	DateOfBirth      string
	Gender           string
	MaritalStatus    string
	BloodGroup       string
	Email            string
	AlternatePhone   string
	EmergencyContact string
	EmergencyPhone   string
	CurrentAddress   string
	PermanentAddress string
	City             string
	State            string
	PinCode          string

	BankAccountNumber string
	BankIFSC          string
	BankName          string

	AadhaarNumber string
	PanNumber     string

	Education  []models.Education
	Experience []models.Experience
	Extras     map[string]interface{}

	OutletID *uint
	RoleID   *uint

	// PhoneVerified is set by the caller when the session itself proves the phone.
	PhoneVerified bool
}

func (in DraftInput) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	put := func(column, value string) {
		if v := strings.TrimSpace(value); v != "" {
			cols[column] = v
		}
	}
	put("full_name", in.FullName)
	put("father_name", in.FatherName)
	put("date_of_birth", in.DateOfBirth)
	put("gender", in.Gender)
	put("marital_status", in.MaritalStatus)
	put("blood_group", in.BloodGroup)
	put("email", strings.ToLower(in.Email))
	put("alternate_phone", in.AlternatePhone)
	put("emergency_contact", in.EmergencyContact)
	put("emergency_phone", in.EmergencyPhone)
	put("current_address", in.CurrentAddress)
	put("permanent_address", in.PermanentAddress)
	put("city", in.City)
	put("state", in.State)
	put("pin_code", in.PinCode)
	put("bank_account_number", in.BankAccountNumber)
	put("bank_ifsc", strings.ToUpper(in.BankIFSC))
	put("bank_name", in.BankName)

	if in.Education != nil {
		cols["education"] = datatypes.NewJSONType(in.Education)
	}
	if in.Experience != nil {
		cols["experience"] = datatypes.NewJSONType(in.Experience)
	}
	if in.Extras != nil {
		cols["extras"] = datatypes.JSONMap(in.Extras)
	}
	if in.OutletID != nil {
		cols["outlet_id"] = *in.OutletID
	}
	if in.RoleID != nil {
		cols["role_id"] = *in.RoleID
	}
	if in.PhoneVerified {
		cols["phone_otp_verified"] = true
	}
	return cols
}

// SaveDraft upserts the open draft of in.Phone. There is at most one draft per phone: the
// unique open_draft_phone column rejects a concurrent first save, which then retries and
// finds the winner's draft.
func (e *Engine) SaveDraft(ctx context.Context, in DraftInput) (*models.Onboarding, error) {
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return nil, apperror.ValidationFields(map[string]string{"phone": "Phone number is required!"})
	}

	rec, err := e.saveDraft(ctx, phone, in)
	if errors.Is(err, errDraftRace) {
		rec, err = e.saveDraft(ctx, phone, in)
		if errors.Is(err, errDraftRace) {
			return nil, apperror.Conflict("Draft is being created by another request, please retry!")
		}
	}
	return rec, err
}

var errDraftRace = errors.New("concurrent draft creation")

func (e *Engine) saveDraft(ctx context.Context, phone string, in DraftInput) (*models.Onboarding, error) {
	var out models.Onboarding
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAssignment(tx, in.OutletID, in.RoleID); err != nil {
			return err
		}

		var draft models.Onboarding
		err := tx.Where("phone = ? AND status = ?", phone, models.StatusDraft).
			Order("id DESC").
			First(&draft).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			draft = models.Onboarding{
				Phone:          phone,
				OpenDraftPhone: &phone,
				Status:         models.StatusDraft,
				EmployeeStatus: models.EmployeeActive,
			}
			if err := tx.Create(&draft).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errDraftRace
				}
				return apperror.Internal("Failed to create draft!", err)
			}
		} else if err != nil {
			return apperror.Internal("Failed to load draft!", err)
		}

		cols := in.columns()
		identityColumns(&draft, in, cols)

		if len(cols) > 0 {
			res := tx.Model(&models.Onboarding{}).
				Where("id = ? AND status = ?", draft.ID, models.StatusDraft).
				Updates(cols)
			if res.Error != nil {
				return apperror.Internal("Failed to save draft!", res.Error)
			}
			if res.RowsAffected == 0 {
				return apperror.Conflict("Draft was submitted by another request!")
			}
		}

		return preloaded(tx).First(&out, draft.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// identityColumns stores changed identity numbers and drops the verification tied to the old one.
func identityColumns(draft *models.Onboarding, in DraftInput, cols map[string]interface{}) {
	if n := strings.TrimSpace(in.AadhaarNumber); n != "" && n != draft.AadhaarNumber {
		cols["aadhaar_number"] = n
		cols["aadhaar_verified"] = false
		cols["aadhaar_client_id"] = ""
	}
	if n := strings.ToUpper(strings.TrimSpace(in.PanNumber)); n != "" && n != draft.PanNumber {
		cols["pan_number"] = n
		cols["pan_verified"] = false
	}
	if v, ok := cols["email"]; ok && v != draft.Email {
		cols["email_otp_verified"] = false
	}
}

func checkAssignment(tx *gorm.DB, outletID, roleID *uint) error {
	fields := map[string]string{}
	if outletID != nil {
		var outlet models.Outlet
		if err := tx.Where("id = ? AND is_active = ?", *outletID, true).First(&outlet).Error; err != nil {
			fields["outletId"] = "Outlet not found or inactive!"
		}
	}
	if roleID != nil {
		var role models.RoleDefinition
		if err := tx.Where("id = ? AND is_active = ?", *roleID, true).First(&role).Error; err != nil {
			fields["roleId"] = "Role not found or inactive!"
		}
	}
	if len(fields) > 0 {
		return apperror.ValidationFields(fields)
	}
	return nil
}

// AttachDocument stores doc under slot, replacing any previous document in that slot.
func (e *Engine) AttachDocument(ctx context.Context, id uint, slot string, doc models.Document) (*models.Onboarding, error) {
	if !validSlot(slot) {
		return nil, apperror.Validation(fmt.Sprintf("Unknown document slot %q!", slot))
	}

	return e.editOpen(ctx, id, func(rec *models.Onboarding) (map[string]interface{}, error) {
		docs := rec.DocumentMap()
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = e.now()
		}
		docs[slot] = doc
		return map[string]interface{}{"documents": datatypes.NewJSONType(docs)}, nil
	})
}

func validSlot(slot string) bool {
	for _, s := range models.DocumentSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Verification flags set by the verification gateway
type VerificationFlag string

const (
	VerifiedAadhaar VerificationFlag = "aadhaar"
	VerifiedPan     VerificationFlag = "pan"
	VerifiedPhone   VerificationFlag = "phone"
	VerifiedEmail   VerificationFlag = "email"
)

// VerificationResult is what a successful verification contributes to the draft.
type VerificationResult struct {
	Flag          VerificationFlag
	ClientID      string
	AadhaarNumber string
	PanNumber     string
	Email         string
	Profile       map[string]interface{}
}

// RecordVerification marks one verification flag on an open draft.
func (e *Engine) RecordVerification(ctx context.Context, id uint, v VerificationResult) (*models.Onboarding, error) {
	return e.editOpen(ctx, id, func(rec *models.Onboarding) (map[string]interface{}, error) {
		cols := map[string]interface{}{}
		switch v.Flag {
		case VerifiedAadhaar:
			if v.ClientID == "" || v.ClientID != rec.AadhaarClientID {
				return nil, apperror.ValidationFields(map[string]string{"clientId": "Aadhaar verification was not started for this application!"})
			}
			if strings.TrimSpace(v.AadhaarNumber) == "" {
				return nil, apperror.Validation("Aadhaar verification did not return an Aadhaar number!")
			}
			cols["aadhaar_verified"] = true
			cols["aadhaar_number"] = strings.TrimSpace(v.AadhaarNumber)
			cols["aadhaar_client_id"] = ""
			if v.Profile != nil {
				cols["identity_profile"] = datatypes.JSONMap(v.Profile)
			}
		case VerifiedPan:
			cols["pan_verified"] = true
			if v.PanNumber != "" {
				cols["pan_number"] = strings.ToUpper(v.PanNumber)
			}
		case VerifiedPhone:
			cols["phone_otp_verified"] = true
		case VerifiedEmail:
			if v.Email != "" && !strings.EqualFold(v.Email, rec.Email) {
				return nil, apperror.Validation("Verified email does not match the application!")
			}
			cols["email_otp_verified"] = true
		default:
			return nil, apperror.Validation(fmt.Sprintf("Unknown verification %q!", v.Flag))
		}
		return cols, nil
	})
}

// BindAadhaarClient ties a provider flow to the draft. A later flow replaces the earlier one.
func (e *Engine) BindAadhaarClient(ctx context.Context, id uint, clientID string) (*models.Onboarding, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, apperror.ValidationFields(map[string]string{"clientId": "Client id is required!"})
	}
	return e.editOpen(ctx, id, func(rec *models.Onboarding) (map[string]interface{}, error) {
		return map[string]interface{}{"aadhaar_client_id": clientID}, nil
	})
}

// editOpen applies a column change to a record that is still a draft.
func (e *Engine) editOpen(ctx context.Context, id uint, fn func(rec *models.Onboarding) (map[string]interface{}, error)) (*models.Onboarding, error) {
	var out models.Onboarding
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := loadForUpdate(tx, id)
		if err != nil {
			return err
		}
		if !rec.Status.IsOpen() {
			return apperror.InvalidState("Application can only be changed while it is a draft!")
		}

		cols, err := fn(rec)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Onboarding{}).
			Where("id = ? AND status = ?", rec.ID, rec.Status).
			Updates(cols)
		if res.Error != nil {
			return apperror.Internal("Failed to update application!", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.Conflict("Application was changed by another request, please retry!")
		}
		return preloaded(tx).First(&out, rec.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit promotes a draft. An approval link goes to the outlet's field coach when one is
// resolvable; otherwise the application waits in submitted for manual dispatch.
func (e *Engine) Submit(ctx context.Context, id uint) (*models.Onboarding, error) {
	return e.transition(ctx, transitionRequest{
		id:    id,
		event: EventSubmit,
		guard: func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error) {
			if rec.OutletID == nil || rec.Outlet == nil {
				return nil, apperror.Validation("Outlet must be selected before submission")
			}
			if !rec.AadhaarVerified {
				return nil, apperror.Validation("Aadhaar verification is required before submission")
			}
			if _, ok := rec.DocumentMap()[models.DocumentPhoto]; !ok {
				return nil, apperror.Validation("Photo is required before submission")
			}
			if rec.RoleID == nil {
				return nil, apperror.Validation("Role must be selected before submission")
			}
			if !rec.Outlet.IsActive || rec.Outlet.DeletedAt.Valid {
				return nil, apperror.Validation("Selected outlet is no longer active")
			}

			now := e.now()
			m := &mutation{status: models.StatusSubmitted}
			m.set("submitted_at", now)
			m.set("open_draft_phone", nil)

			prior, err := priorHistory(tx, rec)
			if err != nil {
				return nil, err
			}
			if len(prior) > 0 {
				merged := append(append([]models.EmploymentRecord{}, rec.History()...), prior...)
				m.set("previous_employment", datatypes.NewJSONType(merged))
			}

			m.emit(models.EventApplicationSubmitted, candidatePayload(rec))

			coach, err := resolveCoach(tx, rec.Outlet)
			if err != nil {
				return nil, err
			}
			if coach != nil {
				if err := e.requestApproval(m, rec, coach); err != nil {
					return nil, err
				}
			}
			return m, nil
		},
	})
}

// DispatchApproval sends the approval link for a submitted application whose outlet has
// since been given a field coach. On a pending application it replaces the link.
func (e *Engine) DispatchApproval(ctx context.Context, id uint, actor *models.Principal) (*models.Onboarding, error) {
	return e.transition(ctx, transitionRequest{
		id:    id,
		event: EventDispatch,
		actor: actor,
		roles: []string{models.RoleSuperAdmin},
		guard: func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error) {
			coach, err := resolveCoach(tx, rec.Outlet)
			if err != nil {
				return nil, err
			}
			if coach == nil {
				return nil, apperror.Validation("Outlet has no field coach with an email address!")
			}
			m := &mutation{}
			if err := e.requestApproval(m, rec, coach); err != nil {
				return nil, err
			}
			return m, nil
		},
	})
}

// DispatchSubmitted moves every submitted application of outletID to pending_approval. It runs
// inside the caller's transaction; call Kick after commit.
func (e *Engine) DispatchSubmitted(tx *gorm.DB, outletID uint) (int, error) {
	var ids []uint
	if err := tx.Model(&models.Onboarding{}).
		Where("outlet_id = ? AND status = ?", outletID, models.StatusSubmitted).
		Pluck("id", &ids).Error; err != nil {
		return 0, apperror.Internal("Failed to load submitted applications!", err)
	}

	sent := 0
	for _, id := range ids {
		rec, err := loadForUpdate(tx, id)
		if err != nil {
			return sent, err
		}
		coach, err := resolveCoach(tx, rec.Outlet)
		if err != nil {
			return sent, err
		}
		if coach == nil {
			return sent, nil
		}
		m := &mutation{}
		if err := e.requestApproval(m, rec, coach); err != nil {
			return sent, err
		}
		if err := e.persist(tx, rec, m, nil); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (e *Engine) requestApproval(m *mutation, rec *models.Onboarding, coach *models.StaffAccount) error {
	raw, hash, err := newApprovalToken()
	if err != nil {
		return apperror.Internal("Failed to issue approval token!", err)
	}
	m.status = models.StatusPendingApproval
	m.set("approval_token_hash", hash)
	m.set("approval_token_expiry", e.now().Add(e.tokenTTL))

	payload := candidatePayload(rec)
	payload["coachId"] = coach.ID
	payload["coachName"] = coach.Name
	payload["coachEmail"] = coach.Email
	payload["approvalLink"] = fmt.Sprintf("%s/public/approvals/%d?token=%s", e.baseURL, rec.ID, raw)
	m.events = append(m.events, pendingEvent{eventType: models.EventApprovalRequested, payload: payload, sensitive: true})
	return nil
}

// resolveCoach returns the active field coach of outlet, or nil when none has an email.
func resolveCoach(tx *gorm.DB, outlet *models.Outlet) (*models.StaffAccount, error) {
	if outlet == nil || outlet.FieldCoachID == nil {
		return nil, nil
	}
	var coach models.StaffAccount
	err := tx.Where("id = ? AND role = ? AND is_active = ?", *outlet.FieldCoachID, models.RoleFieldCoach, true).
		First(&coach).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal("Failed to resolve field coach!", err)
	}
	if strings.TrimSpace(coach.Email) == "" {
		return nil, nil
	}
	return &coach, nil
}

func candidatePayload(rec *models.Onboarding) map[string]interface{} {
	p := map[string]interface{}{
		"candidateName":  rec.FullName,
		"candidatePhone": rec.Phone,
		"candidateEmail": rec.Email,
	}
	if rec.Outlet != nil {
		p["outletName"] = rec.Outlet.Name
		p["outletCode"] = rec.Outlet.Code
	}
	if rec.Role != nil {
		p["roleTitle"] = rec.Role.Title
	}
	if rec.EmployeeKey != nil {
		p["employeeKey"] = *rec.EmployeeKey
	}
	return p
}
