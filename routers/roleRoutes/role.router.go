package roleRoutes

import (
	roleController "hrms/controllers/role"
	"hrms/middleware"
	"hrms/models"
	roleValidator "hrms/validators/role"

	"github.com/gofiber/fiber/v2"
)

func SetupRoleRoutes(app *fiber.App) {
	roleGroup := app.Group("/roles", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleSuperAdmin))

	roleGroup.Get("/", roleController.List)
	roleGroup.Get("/:id", roleController.Get)
	roleGroup.Post("/", roleValidator.Create(), roleController.Create)
	roleGroup.Put("/:id", roleValidator.Update(), roleController.Update)
	roleGroup.Delete("/:id", roleController.Delete)
}
