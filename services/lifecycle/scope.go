package lifecycle

import (
	"hrms/apperror"
	"hrms/models"

	"gorm.io/gorm"
)

// Scope is the set of outlets a principal may act on.
type Scope struct {
	All       bool
	OutletIDs []uint
}

// Allows reports whether a record assigned to outletID is inside the scope. Records without an
// outlet are visible to unrestricted principals only.
func (s Scope) Allows(outletID *uint) bool {
	if s.All {
		return true
	}
	if outletID == nil {
		return false
	}
	for _, id := range s.OutletIDs {
		if id == *outletID {
			return true
		}
	}
	return false
}

// Apply restricts q to the scope on the given outlet column.
func (s Scope) Apply(q *gorm.DB, column string) *gorm.DB {
	if s.All {
		return q
	}
	if len(s.OutletIDs) == 0 {
		return q.Where("1 = 0")
	}
	return q.Where(column+" IN ?", s.OutletIDs)
}

// ScopeFor resolves the outlets p may act on. It reads the outlet table on every call; assignments
// can change between requests.
func ScopeFor(db *gorm.DB, p *models.Principal) (Scope, error) {
	if p == nil {
		return Scope{}, nil
	}

	switch p.Role {
	case models.RoleSuperAdmin:
		return Scope{All: true}, nil

	case models.RoleFieldCoach:
		var ids []uint
		if err := db.Model(&models.Outlet{}).
			Where("field_coach_id = ?", p.ID).
			Order("id").
			Pluck("id", &ids).Error; err != nil {
			return Scope{}, apperror.Internal("Failed to resolve outlet scope!", err)
		}
		return Scope{OutletIDs: ids}, nil

	case models.RoleStoreManager:
		if p.IsOutlet() {
			return Scope{OutletIDs: []uint{p.ID}}, nil
		}
		var ids []uint
		if err := db.Model(&models.Outlet{}).
			Where("manager_id = ?", p.ID).
			Order("id").
			Pluck("id", &ids).Error; err != nil {
			return Scope{}, apperror.Internal("Failed to resolve outlet scope!", err)
		}
		return Scope{OutletIDs: ids}, nil
	}

	return Scope{}, nil
}
