package roleController

import (
	"hrms/middleware"
	"hrms/services"
	"hrms/services/directory"
	"hrms/validators/common"
	roleValidator "hrms/validators/role"

	"github.com/gofiber/fiber/v2"
)

// Active is the public role picker
func Active(c *fiber.Ctx) error {
	roles, err := services.App.Directory.Roles(c.UserContext(), true)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Roles fetched successfully.", roles)
}

func List(c *fiber.Ctx) error {
	roles, err := services.App.Directory.Roles(c.UserContext(), c.QueryBool("activeOnly", false))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Roles fetched successfully.", roles)
}

func Get(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	role, err := services.App.Directory.Role(c.UserContext(), id)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Role fetched successfully.", role)
}

func Create(c *fiber.Ctx) error {
	reqData := c.Locals("validatedRole").(*roleValidator.RoleRequest)
	role, err := services.App.Directory.CreateRole(c.UserContext(), directory.RoleInput{
		Title:       &reqData.Title,
		Description: &reqData.Description,
		Category:    &reqData.Category,
		IsActive:    reqData.IsActive,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Role created successfully.", role)
}

func Update(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedRoleUpdate").(*roleValidator.UpdateRoleRequest)
	role, err := services.App.Directory.UpdateRole(c.UserContext(), id, directory.RoleInput{
		Title:       reqData.Title,
		Description: reqData.Description,
		Category:    reqData.Category,
		IsActive:    reqData.IsActive,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Role updated successfully.", role)
}

func Delete(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := services.App.Directory.DeleteRole(c.UserContext(), id); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Role deleted successfully.", nil)
}
