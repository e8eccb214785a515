package applicationRoutes

import (
	applicationController "hrms/controllers/application"
	approvalController "hrms/controllers/approval"
	"hrms/middleware"
	"hrms/models"
	applicationValidator "hrms/validators/application"

	"github.com/gofiber/fiber/v2"
)

// SetupApplicationRoutes mounts the staff views and the approval decisions. Outlet scope is
// enforced by the lifecycle engine on every call.
func SetupApplicationRoutes(app *fiber.App) {
	appGroup := app.Group("/applications", middleware.JWTMiddleware,
		middleware.RequireRoles(models.RoleSuperAdmin, models.RoleFieldCoach, models.RoleStoreManager))

	appGroup.Get("/", applicationValidator.List(), applicationController.List)
	appGroup.Get("/stats", applicationController.Stats)
	appGroup.Get("/pending-approvals", applicationValidator.List(), applicationController.PendingApprovals)
	appGroup.Get("/pending-deactivations", applicationValidator.List(), applicationController.PendingDeactivations)
	appGroup.Get("/submitted", middleware.RequireRoles(models.RoleSuperAdmin), applicationValidator.List(), applicationController.Submitted)
	appGroup.Get("/:id", applicationController.Get)
	appGroup.Get("/:id/events", applicationController.Events)

	reviewers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleFieldCoach)
	appGroup.Post("/:id/approve", reviewers, approvalController.Approve)
	appGroup.Post("/:id/reject", reviewers, applicationValidator.Reason(), approvalController.Reject)
	appGroup.Post("/:id/dispatch", middleware.RequireRoles(models.RoleSuperAdmin), approvalController.Dispatch)
}

// SetupPublicApprovalRoutes serves the emailed approval link. The token is the only credential.
func SetupPublicApprovalRoutes(app *fiber.App) {
	publicGroup := app.Group("/public/approvals")

	publicGroup.Get("/:id", applicationValidator.Token(), approvalController.GetByToken)
	publicGroup.Post("/:id/approve", applicationValidator.TokenDecision(), approvalController.ApproveByToken)
	publicGroup.Post("/:id/reject", applicationValidator.TokenDecision(), approvalController.RejectByToken)
}
