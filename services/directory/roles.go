package directory

import (
	"context"
	"errors"
	"strings"

	"hrms/apperror"
	"hrms/models"

	"gorm.io/gorm"
)

// RoleInput is the writable part of a role. Nil pointers are left unchanged on update.
type RoleInput struct {
	Title       *string
	Description *string
	Category    *string
	IsActive    *bool
}

func (s *Service) role(tx *gorm.DB, id uint) (*models.RoleDefinition, error) {
	var role models.RoleDefinition
	err := tx.First(&role, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Role not found!")
	}
	if err != nil {
		return nil, apperror.Internal("Failed to load role!", err)
	}
	return &role, nil
}

func (s *Service) titleTaken(tx *gorm.DB, title string, except uint) error {
	var count int64
	if err := tx.Unscoped().Model(&models.RoleDefinition{}).
		Where("LOWER(title) = ? AND id <> ?", strings.ToLower(title), except).
		Count(&count).Error; err != nil {
		return apperror.Internal("Failed to check role title!", err)
	}
	if count > 0 {
		return apperror.Conflict("A role with this title already exists!")
	}
	return nil
}

// Roles lists the catalog; activeOnly is what the candidate form shows.
func (s *Service) Roles(ctx context.Context, activeOnly bool) ([]models.RoleDefinition, error) {
	q := s.db.WithContext(ctx).Order("category ASC, title ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	out := []models.RoleDefinition{}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperror.Internal("Failed to load roles!", err)
	}
	return out, nil
}

func (s *Service) Role(ctx context.Context, id uint) (*models.RoleDefinition, error) {
	return s.role(s.db.WithContext(ctx), id)
}

func (s *Service) CreateRole(ctx context.Context, in RoleInput) (*models.RoleDefinition, error) {
	title := str(in.Title)
	if title == "" {
		return nil, apperror.ValidationFields(map[string]string{"title": "title is required!"})
	}
	db := s.db.WithContext(ctx)
	if err := s.titleTaken(db, title, 0); err != nil {
		return nil, err
	}
	role := models.RoleDefinition{
		Title:       title,
		Description: str(in.Description),
		Category:    strings.ToLower(str(in.Category)),
		IsActive:    true,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		if in.IsActive != nil && !*in.IsActive {
			role.IsActive = false
			return tx.Model(&role).Update("is_active", false).Error
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Internal("Failed to create role!", err)
	}
	return &role, nil
}

func (s *Service) UpdateRole(ctx context.Context, id uint, in RoleInput) (*models.RoleDefinition, error) {
	var out *models.RoleDefinition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.role(tx, id); err != nil {
			return err
		}
		cols := map[string]interface{}{}
		if in.Title != nil {
			title := str(in.Title)
			if title == "" {
				return apperror.ValidationFields(map[string]string{"title": "title cannot be empty!"})
			}
			if err := s.titleTaken(tx, title, id); err != nil {
				return err
			}
			cols["title"] = title
		}
		if in.Description != nil {
			cols["description"] = str(in.Description)
		}
		if in.Category != nil {
			cols["category"] = strings.ToLower(str(in.Category))
		}
		if in.IsActive != nil {
			cols["is_active"] = *in.IsActive
		}
		if len(cols) > 0 {
			if err := tx.Model(&models.RoleDefinition{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return apperror.Internal("Failed to update role!", err)
			}
		}
		var err error
		out, err = s.role(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRole soft-deletes a role no current employee holds.
func (s *Service) DeleteRole(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.role(tx, id); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Onboarding{}).
			Where("role_id = ? AND status = ? AND employee_status IN ?", id, models.StatusApproved, employedStatuses).
			Count(&count).Error; err != nil {
			return apperror.Internal("Failed to check role usage!", err)
		}
		if count > 0 {
			return apperror.Conflict("Role is still held by active employees!")
		}
		if err := tx.Delete(&models.RoleDefinition{}, id).Error; err != nil {
			return apperror.Internal("Failed to delete role!", err)
		}
		return nil
	})
}
