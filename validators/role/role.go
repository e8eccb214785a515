package roleValidator

import (
	"strings"

	"hrms/validators/common"

	"github.com/gofiber/fiber/v2"
)

type RoleRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Category    string `json:"category" validate:"omitempty,max=50"`
	IsActive    *bool  `json:"isActive"`
}

type UpdateRoleRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
	IsActive    *bool   `json:"isActive"`
}

func Create() fiber.Handler {
	return common.Body[RoleRequest]("validatedRole", func(r *RoleRequest, _ map[string]string) {
		r.Title = strings.TrimSpace(r.Title)
		r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	})
}

func Update() fiber.Handler {
	return common.Body[UpdateRoleRequest]("validatedRoleUpdate")
}
