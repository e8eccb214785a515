package exportRoutes

import (
	exportController "hrms/controllers/export"
	"hrms/middleware"
	"hrms/models"
	exportValidator "hrms/validators/export"

	"github.com/gofiber/fiber/v2"
)

func SetupExportRoutes(app *fiber.App) {
	exportGroup := app.Group("/admin/export", middleware.JWTMiddleware,
		middleware.RequireRoles(models.RoleSuperAdmin, models.RoleFieldCoach, models.RoleStoreManager))

	exportGroup.Get("/", exportValidator.Export(), exportController.Export)
	exportGroup.Post("/link", exportValidator.Link(), exportController.CreateLink)

	app.Get("/public/export/:token", exportValidator.Public(), exportController.Public)
}
