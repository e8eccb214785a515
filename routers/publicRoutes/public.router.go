package publicRoutes

import (
	outletController "hrms/controllers/outlet"
	roleController "hrms/controllers/role"

	"github.com/gofiber/fiber/v2"
)

// SetupPublicRoutes serves the pickers of the candidate form.
func SetupPublicRoutes(app *fiber.App) {
	publicGroup := app.Group("/public")

	publicGroup.Get("/outlets", outletController.Active)
	publicGroup.Get("/roles", roleController.Active)
}
