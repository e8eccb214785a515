package outletRoutes

import (
	outletController "hrms/controllers/outlet"
	"hrms/middleware"
	"hrms/models"
	outletValidator "hrms/validators/outlet"

	"github.com/gofiber/fiber/v2"
)

func SetupOutletRoutes(app *fiber.App) {
	outletGroup := app.Group("/outlets", middleware.JWTMiddleware, middleware.RequireKind(models.PrincipalStaff))
	admin := middleware.RequireRoles(models.RoleSuperAdmin)

	// Coaches and managers see their own outlets
	outletGroup.Get("/", outletValidator.List(), outletController.List)
	outletGroup.Get("/:id", admin, outletController.Get)

	outletGroup.Post("/", admin, outletValidator.Create(), outletController.Create)
	outletGroup.Post("/import", admin, outletController.Import)
	outletGroup.Put("/:id", admin, outletValidator.Update(), outletController.Update)
	outletGroup.Delete("/:id", admin, outletController.Delete)
	outletGroup.Put("/:id/manager", admin, outletValidator.Assign(), outletController.AssignManager)
	outletGroup.Put("/:id/field-coach", admin, outletValidator.Assign(), outletController.AssignFieldCoach)
	outletGroup.Put("/:id/password", admin, outletValidator.Password(), outletController.SetPassword)
}
