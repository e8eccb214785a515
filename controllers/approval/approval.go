package approvalController

import (
	"hrms/middleware"
	"hrms/models"
	"hrms/services"
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

// Approve accepts a submitted or pending application
func Approve(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	rec, err := services.App.Lifecycle.Approve(c.UserContext(), id, middleware.CurrentPrincipal(c))
	return respond(c, "Application approved successfully.", rec, err)
}

// Reject declines a submitted or pending application with a reason
func Reject(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedReason").(*applicationValidator.ReasonRequest)
	rec, err := services.App.Lifecycle.Reject(c.UserContext(), id, middleware.CurrentPrincipal(c), reqData.Reason)
	return respond(c, "Application rejected.", rec, err)
}

// Dispatch (re)sends the approval link to the outlet's field coach
func Dispatch(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	rec, err := services.App.Lifecycle.DispatchApproval(c.UserContext(), id, middleware.CurrentPrincipal(c))
	return respond(c, "Approval link sent to the field coach.", rec, err)
}

// GetByToken shows the application behind an emailed approval link
func GetByToken(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedToken").(*applicationValidator.TokenQuery)
	rec, err := services.App.Lifecycle.GetByToken(c.UserContext(), id, reqData.Token)
	return respond(c, "Application fetched successfully.", rec, err)
}

// ApproveByToken approves through an emailed link
func ApproveByToken(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedTokenDecision").(*applicationValidator.TokenDecisionRequest)
	rec, err := services.App.Lifecycle.ApproveByToken(c.UserContext(), id, reqData.Token)
	return respond(c, "Application approved successfully.", rec, err)
}

// RejectByToken rejects through an emailed link
func RejectByToken(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedTokenDecision").(*applicationValidator.TokenDecisionRequest)
	rec, err := services.App.Lifecycle.RejectByToken(c.UserContext(), id, reqData.Token, reqData.Reason)
	return respond(c, "Application rejected.", rec, err)
}
