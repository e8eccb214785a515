package directory

import (
	"context"
	"errors"
	"log"
	"strings"

	"hrms/apperror"
	"hrms/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func validStaffRole(role string) bool {
	for _, r := range models.StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}

type StaffInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
	Role     *string
}

type StaffFilter struct {
	Role   string
	Search string
	Page   int
	Limit  int
}

func (s *Service) staff(tx *gorm.DB, id uint) (*models.StaffAccount, error) {
	var staff models.StaffAccount
	err := tx.First(&staff, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Staff account not found!")
	}
	if err != nil {
		return nil, apperror.Internal("Failed to load staff account!", err)
	}
	return &staff, nil
}

func (s *Service) Staff(ctx context.Context, id uint) (*models.StaffAccount, error) {
	return s.staff(s.db.WithContext(ctx), id)
}

func (s *Service) ListStaff(ctx context.Context, f StaffFilter) ([]models.StaffAccount, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.StaffAccount{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)", like, like, like)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal("Failed to count staff!", err)
	}
	out := []models.StaffAccount{}
	if err := q.Order("name ASC").Offset((f.Page - 1) * f.Limit).Limit(f.Limit).Find(&out).Error; err != nil {
		return nil, 0, apperror.Internal("Failed to load staff!", err)
	}
	return out, total, nil
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperror.Internal("Failed to process password!", err)
	}
	return string(h), nil
}

func (s *Service) CreateStaff(ctx context.Context, in StaffInput) (*models.StaffAccount, error) {
	email := strings.ToLower(str(in.Email))
	role := str(in.Role)
	fields := map[string]string{}
	if str(in.Name) == "" {
		fields["name"] = "name is required!"
	}
	if email == "" {
		fields["email"] = "email is required!"
	}
	if len(str(in.Password)) < 8 {
		fields["password"] = "password must be at least 8 characters long!"
	}
	if !validStaffRole(role) {
		fields["role"] = "Unknown staff role!"
	}
	if len(fields) > 0 {
		return nil, apperror.ValidationFields(fields)
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Unscoped().Model(&models.StaffAccount{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperror.Internal("Failed to check email!", err)
	}
	if count > 0 {
		return nil, apperror.Conflict("Email is already registered!")
	}
	hash, err := s.hash(str(in.Password))
	if err != nil {
		return nil, err
	}
	staff := models.StaffAccount{
		Name:     str(in.Name),
		Email:    email,
		Phone:    str(in.Phone),
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(&staff).Error; err != nil {
		return nil, apperror.Internal("Failed to create staff account!", err)
	}
	log.Printf("[DIRECTORY] staff %s created with role %s", staff.Email, staff.Role)
	return &staff, nil
}

// UpdateStaff changes profile fields, role or password. A role change is refused while the
// account is assigned to an outlet in its current role.
func (s *Service) UpdateStaff(ctx context.Context, id uint, in StaffInput) (*models.StaffAccount, error) {
	var out *models.StaffAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		staff, err := s.staff(tx, id)
		if err != nil {
			return err
		}
		cols := map[string]interface{}{}
		if in.Name != nil {
			if str(in.Name) == "" {
				return apperror.ValidationFields(map[string]string{"name": "name cannot be empty!"})
			}
			cols["name"] = str(in.Name)
		}
		if in.Phone != nil {
			cols["phone"] = str(in.Phone)
		}
		if in.Role != nil && str(in.Role) != staff.Role {
			role := str(in.Role)
			if !validStaffRole(role) {
				return apperror.ValidationFields(map[string]string{"role": "Unknown staff role!"})
			}
			if err := s.assignedCheck(tx, staff); err != nil {
				return err
			}
			cols["role"] = role
		}
		if in.Password != nil {
			if len(*in.Password) < 8 {
				return apperror.ValidationFields(map[string]string{"password": "password must be at least 8 characters long!"})
			}
			hash, err := s.hash(*in.Password)
			if err != nil {
				return err
			}
			cols["password"] = hash
		}
		if len(cols) > 0 {
			if err := tx.Model(&models.StaffAccount{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return apperror.Internal("Failed to update staff account!", err)
			}
		}
		out, err = s.staff(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) assignedCheck(tx *gorm.DB, staff *models.StaffAccount) error {
	var count int64
	if err := tx.Model(&models.Outlet{}).
		Where("manager_id = ? OR field_coach_id = ?", staff.ID, staff.ID).
		Count(&count).Error; err != nil {
		return apperror.Internal("Failed to check outlet assignments!", err)
	}
	if count > 0 {
		return apperror.Conflict("Staff account is still assigned to outlets!")
	}
	return nil
}

// SetStaffActive enables or disables a login. The last active super admin cannot be disabled.
func (s *Service) SetStaffActive(ctx context.Context, id uint, active bool) (*models.StaffAccount, error) {
	var out *models.StaffAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		staff, err := s.staff(tx, id)
		if err != nil {
			return err
		}
		if !active && staff.Role == models.RoleSuperAdmin && staff.IsActive {
			var admins int64
			if err := tx.Model(&models.StaffAccount{}).
				Where("role = ? AND is_active = ?", models.RoleSuperAdmin, true).
				Count(&admins).Error; err != nil {
				return apperror.Internal("Failed to count super admins!", err)
			}
			if admins <= 1 {
				return apperror.Conflict("Cannot deactivate the last super admin!")
			}
		}
		if err := tx.Model(&models.StaffAccount{}).Where("id = ?", id).Update("is_active", active).Error; err != nil {
			return apperror.Internal("Failed to update staff account!", err)
		}
		out, err = s.staff(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
