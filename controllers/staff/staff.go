package staffController

import (
	"hrms/middleware"
	"hrms/services"
	"hrms/services/directory"
	"hrms/validators/common"
	staffValidator "hrms/validators/staff"

	"github.com/gofiber/fiber/v2"
)

func Create(c *fiber.Ctx) error {
	reqData := c.Locals("validatedStaff").(*staffValidator.CreateStaffRequest)
	staff, err := services.App.Directory.CreateStaff(c.UserContext(), directory.StaffInput{
		Name:     &reqData.Name,
		Email:    &reqData.Email,
		Phone:    &reqData.Phone,
		Password: &reqData.Password,
		Role:     &reqData.Role,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Staff account created successfully.", staff)
}

func List(c *fiber.Ctx) error {
	q := c.Locals("validatedStaffList").(*staffValidator.ListQuery)
	items, total, err := services.App.Directory.ListStaff(c.UserContext(), directory.StaffFilter{
		Role:   q.Role,
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Staff fetched successfully.", fiber.Map{
		"items": items,
		"total": total,
	})
}

func Get(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	staff, err := services.App.Directory.Staff(c.UserContext(), id)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Staff account fetched successfully.", staff)
}

func Update(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedStaffUpdate").(*staffValidator.UpdateStaffRequest)
	staff, err := services.App.Directory.UpdateStaff(c.UserContext(), id, directory.StaffInput{
		Name:     reqData.Name,
		Phone:    reqData.Phone,
		Password: reqData.Password,
		Role:     reqData.Role,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Staff account updated successfully.", staff)
}

// SetStatus enables or disables a staff login
func SetStatus(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedStaffStatus").(*staffValidator.StatusRequest)
	staff, err := services.App.Directory.SetStaffActive(c.UserContext(), id, *reqData.IsActive)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Staff status updated.", staff)
}
