package applicationController

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

func list(c *fiber.Ctx, filter models.ExportFilter, q *applicationValidator.ListQuery) error {
	page, err := services.App.Lifecycle.List(c.UserContext(), middleware.CurrentPrincipal(c), lifecycle.ListFilter{
		ExportFilter: filter,
		Page:         q.Page,
		Limit:        q.Limit,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Applications fetched successfully.", fiber.Map{
		"items": utils.PresentOnboardings(page.Items),
		"total": page.Total,
		"page":  page.Page,
		"limit": page.Limit,
	})
}

// List returns the applications visible to the caller, filtered and paged
func List(c *fiber.Ctx) error {
	q := c.Locals("validatedList").(*applicationValidator.ListQuery)
	return list(c, q.Filter(), q)
}

// PendingApprovals lists applications waiting for a decision
func PendingApprovals(c *fiber.Ctx) error {
	q := c.Locals("validatedList").(*applicationValidator.ListQuery)
	f := q.Filter()
	f.Status = string(models.StatusPendingApproval)
	return list(c, f, q)
}

// Submitted lists applications whose outlet had no field coach at submit time
func Submitted(c *fiber.Ctx) error {
	q := c.Locals("validatedList").(*applicationValidator.ListQuery)
	f := q.Filter()
	f.Status = string(models.StatusSubmitted)
	return list(c, f, q)
}

// PendingDeactivations lists employees with an open deactivation request
func PendingDeactivations(c *fiber.Ctx) error {
	q := c.Locals("validatedList").(*applicationValidator.ListQuery)
	f := q.Filter()
	f.Status = ""
	f.EmployeeStatus = string(models.EmployeeDeactivationPending)
	return list(c, f, q)
}

// Employees lists approved records, optionally narrowed by employeeStatus
func Employees(c *fiber.Ctx) error {
	q := c.Locals("validatedList").(*applicationValidator.ListQuery)
	f := q.Filter()
	f.Status = string(models.StatusApproved)
	return list(c, f, q)
}

func Get(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	rec, err := services.App.Lifecycle.Get(c.UserContext(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Application fetched successfully.", utils.PresentOnboarding(rec))
}

// Events returns the lifecycle history of one application
func Events(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	events, err := services.App.Lifecycle.Events(c.UserContext(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Application history fetched successfully.", events)
}

// Stats is the dashboard summary for the caller's scope
func Stats(c *fiber.Ctx) error {
	st, err := services.App.Lifecycle.Stats(c.UserContext(), middleware.CurrentPrincipal(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully.", fiber.Map{
		"stats":                st,
		"pendingApprovals":     st.ByStatus[string(models.StatusPendingApproval)] + st.ByStatus[string(models.StatusSubmitted)],
		"pendingDeactivations": st.ByEmployeeStatus[string(models.EmployeeDeactivationPending)],
	})
}
