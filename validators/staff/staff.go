package staffValidator

import (
	"strings"

	"hrms/validators/common"

	"github.com/gofiber/fiber/v2"
)

type CreateStaffRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,mobile"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=super_admin field_coach store_manager"`
}

type UpdateStaffRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=150"`
	Phone    *string `json:"phone" validate:"omitempty,mobile"`
	Role     *string `json:"role" validate:"omitempty,oneof=super_admin field_coach store_manager"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

type StatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type ListQuery struct {
	Role   string `query:"role" validate:"omitempty,oneof=super_admin field_coach store_manager"`
	Search string `query:"search" validate:"omitempty,max=100"`
	common.Pagination
}

func Create() fiber.Handler {
	return common.Body[CreateStaffRequest]("validatedStaff", func(r *CreateStaffRequest, _ map[string]string) {
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
		r.Name = strings.TrimSpace(r.Name)
	})
}

func Update() fiber.Handler {
	return common.Body[UpdateStaffRequest]("validatedStaffUpdate")
}

func Status() fiber.Handler {
	return common.Body[StatusRequest]("validatedStaffStatus")
}

func List() fiber.Handler {
	return common.Query[ListQuery]("validatedStaffList")
}
