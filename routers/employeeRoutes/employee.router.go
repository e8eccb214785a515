package employeeRoutes

import (
	applicationController "hrms/controllers/application"
	employeeController "hrms/controllers/employee"
	"hrms/middleware"
	"hrms/models"
	applicationValidator "hrms/validators/application"

	"github.com/gofiber/fiber/v2"
)

func SetupEmployeeRoutes(app *fiber.App) {
	employeeGroup := app.Group("/employees", middleware.JWTMiddleware,
		middleware.RequireRoles(models.RoleSuperAdmin, models.RoleFieldCoach, models.RoleStoreManager))

	admin := middleware.RequireRoles(models.RoleSuperAdmin)
	reviewers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleFieldCoach)

	employeeGroup.Get("/", applicationValidator.List(), applicationController.Employees)
	employeeGroup.Post("/:id/deactivation/request", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleStoreManager),
		applicationValidator.Reason(), employeeController.RequestDeactivation)
	employeeGroup.Post("/:id/deactivation/approve", reviewers, employeeController.ApproveDeactivation)
	employeeGroup.Post("/:id/deactivation/reject", reviewers, applicationValidator.OptionalReason(), employeeController.RejectDeactivation)
	employeeGroup.Post("/:id/terminate", reviewers, applicationValidator.Terminate(), employeeController.Terminate)
	employeeGroup.Post("/:id/deactivate", admin, applicationValidator.Reason(), employeeController.DeactivateDirect)
	employeeGroup.Post("/:id/rehire", admin, employeeController.Rehire)
}
