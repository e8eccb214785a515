package staffRoutes

import (
	staffController "hrms/controllers/staff"
	"hrms/middleware"
	"hrms/models"
	staffValidator "hrms/validators/staff"

	"github.com/gofiber/fiber/v2"
)

func SetupStaffRoutes(app *fiber.App) {
	staffGroup := app.Group("/staff", middleware.JWTMiddleware,
		middleware.RequireKind(models.PrincipalStaff), middleware.RequireRoles(models.RoleSuperAdmin))

	staffGroup.Get("/", staffValidator.List(), staffController.List)
	staffGroup.Get("/:id", staffController.Get)
	staffGroup.Post("/", staffValidator.Create(), staffController.Create)
	staffGroup.Put("/:id", staffValidator.Update(), staffController.Update)
	staffGroup.Patch("/:id/status", staffValidator.Status(), staffController.SetStatus)
}
