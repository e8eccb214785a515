package outletValidator

import (
	"strings"

	"hrms/validators/common"

	"github.com/gofiber/fiber/v2"
)

type OutletRequest struct {
	Code     string `json:"code" validate:"required,max=30"`
	Name     string `json:"name" validate:"required,max=150"`
	Address  string `json:"address"`
	City     string `json:"city" validate:"omitempty,max=100"`
	State    string `json:"state" validate:"omitempty,max=100"`
	PinCode  string `json:"pinCode" validate:"omitempty,pincode"`
	Phone    string `json:"phone" validate:"omitempty,mobile"`
	Email    string `json:"email" validate:"omitempty,email"`
	IsActive *bool  `json:"isActive"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// UpdateOutletRequest changes only the fields that are present.
type UpdateOutletRequest struct {
	Code     *string `json:"code" validate:"omitempty,min=1,max=30"`
	Name     *string `json:"name" validate:"omitempty,min=1,max=150"`
	Address  *string `json:"address"`
	City     *string `json:"city" validate:"omitempty,max=100"`
	State    *string `json:"state" validate:"omitempty,max=100"`
	PinCode  *string `json:"pinCode" validate:"omitempty,pincode"`
	Phone    *string `json:"phone" validate:"omitempty,mobile"`
	Email    *string `json:"email" validate:"omitempty,email"`
	IsActive *bool   `json:"isActive"`
}

// AssignRequest names the staff account to assign; null clears the assignment.
type AssignRequest struct {
	StaffID *uint `json:"staffId"`
}

type PasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

type ListQuery struct {
	Search   string `query:"search" validate:"omitempty,max=100"`
	IsActive string `query:"isActive" validate:"omitempty,oneof=true false"`
	common.Pagination
}

func Create() fiber.Handler {
	return common.Body[OutletRequest]("validatedOutlet", func(r *OutletRequest, _ map[string]string) {
		r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
		r.Name = strings.TrimSpace(r.Name)
	})
}

func Update() fiber.Handler {
	return common.Body[UpdateOutletRequest]("validatedOutletUpdate", func(r *UpdateOutletRequest, _ map[string]string) {
		if r.Code != nil {
			code := strings.ToUpper(strings.TrimSpace(*r.Code))
			r.Code = &code
		}
	})
}

func Assign() fiber.Handler {
	return common.Body[AssignRequest]("validatedAssign")
}

func Password() fiber.Handler {
	return common.Body[PasswordRequest]("validatedPassword")
}

func List() fiber.Handler {
	return common.Query[ListQuery]("validatedOutletList")
}
