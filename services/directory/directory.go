// Package directory manages outlets and the role catalog.
package directory

import (
	"context"
	"errors"
	"log"
	"strings"

	"hrms/apperror"
	"hrms/models"
	"hrms/services/lifecycle"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Dispatcher re-sends approval links for an outlet that just gained a field coach.
type Dispatcher interface {
	DispatchSubmitted(tx *gorm.DB, outletID uint) (int, error)
	Kick()
}

type Service struct {
	db       *gorm.DB
	dispatch Dispatcher
	cost     int
}

func New(db *gorm.DB, dispatch Dispatcher, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{db: db, dispatch: dispatch, cost: bcryptCost}
}

// Assignment slots on an outlet
const (
	SlotManager    = "manager"
	SlotFieldCoach = "fieldCoach"
)

func slotColumn(slot string) (column, role string, err error) {
	switch slot {
	case SlotManager:
		return "manager_id", models.RoleStoreManager, nil
	case SlotFieldCoach:
		return "field_coach_id", models.RoleFieldCoach, nil
	}
	return "", "", apperror.Validation("Unknown assignment slot!")
}

// employedStatuses keep an outlet or role from being deleted
var employedStatuses = []models.EmployeeStatus{models.EmployeeActive, models.EmployeeDeactivationPending}

func (s *Service) load(tx *gorm.DB, id uint) (*models.Outlet, error) {
	var outlet models.Outlet
	err := tx.Preload("Manager").Preload("FieldCoach").First(&outlet, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Outlet not found!")
	}
	if err != nil {
		return nil, apperror.Internal("Failed to load outlet!", err)
	}
	return &outlet, nil
}

// Get returns one outlet with its manager and field coach.
func (s *Service) Get(ctx context.Context, id uint) (*models.Outlet, error) {
	return s.load(s.db.WithContext(ctx), id)
}

// OutletFilter narrows List.
type OutletFilter struct {
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}

// List pages outlets visible to actor. Coaches and managers only see their own.
func (s *Service) List(ctx context.Context, actor *models.Principal, f OutletFilter) ([]models.Outlet, int64, error) {
	db := s.db.WithContext(ctx)
	scope, err := lifecycle.ScopeFor(db, actor)
	if err != nil {
		return nil, 0, err
	}
	q := scope.Apply(db.Model(&models.Outlet{}), "outlets.id")
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(code) LIKE ? OR LOWER(name) LIKE ? OR LOWER(city) LIKE ?)", like, like, like)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal("Failed to count outlets!", err)
	}
	out := []models.Outlet{}
	if err := q.Preload("Manager").Preload("FieldCoach").
		Order("code ASC").
		Offset((f.Page - 1) * f.Limit).Limit(f.Limit).
		Find(&out).Error; err != nil {
		return nil, 0, apperror.Internal("Failed to load outlets!", err)
	}
	return out, total, nil
}

// ActiveOutlets is the public outlet picker of the candidate form.
func (s *Service) ActiveOutlets(ctx context.Context) ([]models.Outlet, error) {
	out := []models.Outlet{}
	if err := s.db.WithContext(ctx).
		Select("id", "code", "name", "city", "state").
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, apperror.Internal("Failed to load outlets!", err)
	}
	return out, nil
}

// OutletInput is the writable part of an outlet. Nil pointers are left unchanged on update.
type OutletInput struct {
	Code     *string
	Name     *string
	Address  *string
	City     *string
	State    *string
	PinCode  *string
	Phone    *string
	Email    *string
	IsActive *bool
}

func (in OutletInput) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	put := func(column string, v *string) {
		if v != nil {
			cols[column] = strings.TrimSpace(*v)
		}
	}
	put("code", in.Code)
	put("name", in.Name)
	put("address", in.Address)
	put("city", in.City)
	put("state", in.State)
	put("pin_code", in.PinCode)
	put("phone", in.Phone)
	put("email", in.Email)
	if in.IsActive != nil {
		cols["is_active"] = *in.IsActive
	}
	return cols
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func (s *Service) codeTaken(tx *gorm.DB, code string, except uint) (bool, error) {
	var count int64
	err := tx.Unscoped().Model(&models.Outlet{}).Where("code = ? AND id <> ?", code, except).Count(&count).Error
	return count > 0, err
}

// Create adds an outlet. An optional password enables the outlet-level login.
func (s *Service) Create(ctx context.Context, in OutletInput, password string) (*models.Outlet, error) {
	if in.Code == nil || strings.TrimSpace(*in.Code) == "" || in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperror.ValidationFields(map[string]string{"code": "code and name are required!"})
	}
	db := s.db.WithContext(ctx)
	code := strings.ToUpper(strings.TrimSpace(*in.Code))
	in.Code = &code

	taken, err := s.codeTaken(db, code, 0)
	if err != nil {
		return nil, apperror.Internal("Failed to check outlet code!", err)
	}
	if taken {
		return nil, apperror.Conflict("Outlet code is already in use!")
	}

	outlet := models.Outlet{
		Code:     code,
		Name:     str(in.Name),
		Address:  str(in.Address),
		City:     str(in.City),
		State:    str(in.State),
		PinCode:  str(in.PinCode),
		Phone:    str(in.Phone),
		Email:    strings.ToLower(str(in.Email)),
		IsActive: true,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
		if err != nil {
			return nil, apperror.Internal("Failed to process password!", err)
		}
		outlet.PasswordHash = string(hash)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&outlet).Error; err != nil {
			return err
		}
		// false is the zero value, so the column default would win on insert
		if in.IsActive != nil && !*in.IsActive {
			outlet.IsActive = false
			return tx.Model(&outlet).Update("is_active", false).Error
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Internal("Failed to create outlet!", err)
	}
	log.Printf("[DIRECTORY] outlet %s created", outlet.Code)
	return &outlet, nil
}

// Update changes the given fields of an outlet.
func (s *Service) Update(ctx context.Context, id uint, in OutletInput) (*models.Outlet, error) {
	var out *models.Outlet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.load(tx, id); err != nil {
			return err
		}
		cols := in.columns()
		if code, ok := cols["code"].(string); ok {
			code = strings.ToUpper(code)
			cols["code"] = code
			taken, err := s.codeTaken(tx, code, id)
			if err != nil {
				return apperror.Internal("Failed to check outlet code!", err)
			}
			if taken {
				return apperror.Conflict("Outlet code is already in use!")
			}
		}
		if len(cols) > 0 {
			if err := tx.Model(&models.Outlet{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return apperror.Internal("Failed to update outlet!", err)
			}
		}
		var err error
		out, err = s.load(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetPassword sets the outlet-level login password.
func (s *Service) SetPassword(ctx context.Context, id uint, password string) error {
	if len(password) < 6 {
		return apperror.ValidationFields(map[string]string{"password": "password must be at least 6 characters long!"})
	}
	db := s.db.WithContext(ctx)
	if _, err := s.load(db, id); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return apperror.Internal("Failed to process password!", err)
	}
	if err := db.Model(&models.Outlet{}).Where("id = ?", id).Update("password_hash", string(hash)).Error; err != nil {
		return apperror.Internal("Failed to update password!", err)
	}
	return nil
}

// Delete soft-deletes an outlet that no current employee works at.
func (s *Service) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.load(tx, id); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Onboarding{}).
			Where("outlet_id = ? AND status = ? AND employee_status IN ?", id, models.StatusApproved, employedStatuses).
			Count(&count).Error; err != nil {
			return apperror.Internal("Failed to check outlet employees!", err)
		}
		if count > 0 {
			return apperror.Conflict("Outlet still has active employees!")
		}
		if err := tx.Delete(&models.Outlet{}, id).Error; err != nil {
			return apperror.Internal("Failed to delete outlet!", err)
		}
		log.Printf("[DIRECTORY] outlet %d deleted", id)
		return nil
	})
}

// Assign sets or clears (staffID nil) the manager or field coach of an outlet. A new field
// coach receives approval links for applications that were waiting without one; both writes
// share one transaction.
func (s *Service) Assign(ctx context.Context, outletID uint, slot string, staffID *uint) (*models.Outlet, int, error) {
	column, role, err := slotColumn(slot)
	if err != nil {
		return nil, 0, err
	}

	var out *models.Outlet
	sent := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.load(tx, outletID); err != nil {
			return err
		}
		if err := s.assign(tx, outletID, column, role, staffID); err != nil {
			return err
		}
		if slot == SlotFieldCoach && staffID != nil && s.dispatch != nil {
			n, err := s.dispatch.DispatchSubmitted(tx, outletID)
			if err != nil {
				return err
			}
			sent = n
		}
		out, err = s.load(tx, outletID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	if sent > 0 {
		log.Printf("[DIRECTORY] outlet %d: %d waiting applications sent for approval", outletID, sent)
		s.dispatch.Kick()
	}
	return out, sent, nil
}

func (s *Service) assign(tx *gorm.DB, outletID uint, column, role string, staffID *uint) error {
	if staffID != nil {
		var staff models.StaffAccount
		err := tx.First(&staff, *staffID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Staff account not found!")
		}
		if err != nil {
			return apperror.Internal("Failed to load staff account!", err)
		}
		if !staff.IsActive {
			return apperror.Validation("Staff account is inactive!")
		}
		if staff.Role != role {
			return apperror.Validation("Staff account must have the " + role + " role!")
		}
		if role == models.RoleStoreManager {
			if err := managerFree(tx, staff.ID, outletID); err != nil {
				return err
			}
		}
	}
	if err := tx.Model(&models.Outlet{}).Where("id = ?", outletID).Update(column, staffID).Error; err != nil {
		return apperror.Internal("Failed to update outlet assignment!", err)
	}
	return nil
}

// managerFree rejects a store manager who already runs another outlet. A manager has one outlet.
func managerFree(tx *gorm.DB, staffID, outletID uint) error {
	var other models.Outlet
	err := tx.Where("manager_id = ? AND id <> ?", staffID, outletID).First(&other).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperror.Internal("Failed to check manager assignment!", err)
	}
	return apperror.Conflict("Store manager already manages outlet " + other.Code + "!")
}
