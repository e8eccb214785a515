package employeeController

import (
	"hrms/middleware"
	"hrms/models"
	"hrms/services"
	"hrms/services/lifecycle"
	"hrms/utils"
	applicationValidator "hrms/validators/application"
	"hrms/validators/common"

	"github.com/gofiber/fiber/v2"
)

func respond(c *fiber.Ctx, message string, rec *models.Onboarding, err error) error {
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, utils.PresentOnboarding(rec))
}

// Terminate ends an employment and archives it
func Terminate(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedTerminate").(*applicationValidator.TerminateRequest)
	rec, err := services.App.Lifecycle.Terminate(c.UserContext(), id, middleware.CurrentPrincipal(c), lifecycle.TerminateInput{
		Reason:           reqData.Reason,
		PerformanceNotes: reqData.PerformanceNotes,
	})
	return respond(c, "Employee terminated.", rec, err)
}

// RequestDeactivation is raised by the store manager
func RequestDeactivation(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedReason").(*applicationValidator.ReasonRequest)
	rec, err := services.App.Lifecycle.RequestDeactivation(c.UserContext(), id, middleware.CurrentPrincipal(c), reqData.Reason)
	return respond(c, "Deactivation requested.", rec, err)
}

func ApproveDeactivation(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	rec, err := services.App.Lifecycle.ApproveDeactivation(c.UserContext(), id, middleware.CurrentPrincipal(c))
	return respond(c, "Employee deactivated.", rec, err)
}

func RejectDeactivation(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedReason").(*applicationValidator.OptionalReasonRequest)
	rec, err := services.App.Lifecycle.RejectDeactivation(c.UserContext(), id, middleware.CurrentPrincipal(c), reqData.Reason)
	return respond(c, "Deactivation request rejected.", rec, err)
}

// DeactivateDirect skips the request step (super admin only)
func DeactivateDirect(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedReason").(*applicationValidator.ReasonRequest)
	rec, err := services.App.Lifecycle.DeactivateDirect(c.UserContext(), id, middleware.CurrentPrincipal(c), reqData.Reason)
	return respond(c, "Employee deactivated.", rec, err)
}

func Rehire(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	rec, err := services.App.Lifecycle.Rehire(c.UserContext(), id, middleware.CurrentPrincipal(c))
	return respond(c, "Employee rehired.", rec, err)
}
