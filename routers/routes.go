package routers

import (
	"hrms/metrics"
	"hrms/routers/applicationRoutes"
	"hrms/routers/authRoutes"
	"hrms/routers/candidateRoutes"
	"hrms/routers/employeeRoutes"
	"hrms/routers/exportRoutes"
	"hrms/routers/outletRoutes"
	"hrms/routers/publicRoutes"
	"hrms/routers/roleRoutes"
	"hrms/routers/staffRoutes"

	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App) {
	authRoutes.SetupAuthRoutes(app)
	candidateRoutes.SetupCandidateRoutes(app)
	applicationRoutes.SetupApplicationRoutes(app)
	applicationRoutes.SetupPublicApprovalRoutes(app)
	employeeRoutes.SetupEmployeeRoutes(app)
	outletRoutes.SetupOutletRoutes(app)
	roleRoutes.SetupRoleRoutes(app)
	staffRoutes.SetupStaffRoutes(app)
	exportRoutes.SetupExportRoutes(app)
	publicRoutes.SetupPublicRoutes(app)

	app.Get("/metrics", metrics.Handler())
}
