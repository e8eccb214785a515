package authRoutes

import (
	"time"

	authController "hrms/controllers/auth"
	"hrms/middleware"
	"hrms/models"
	"hrms/services"
	authValidator "hrms/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	loginLimit := middleware.RateLimit("login", services.App.Limiter(10, time.Minute), 10, time.Minute)
	otpLimit := middleware.RateLimit("otp", services.App.Limiter(5, time.Minute), 5, time.Minute)

	authGroup.Post("/login", loginLimit, authValidator.Login(), authController.Login)
	authGroup.Post("/outlet/login", loginLimit, authValidator.OutletLogin(), authController.OutletLogin)
	authGroup.Post("/send/otp", otpLimit, authValidator.SendOTP(), authController.SendOTP)
	authGroup.Patch("/verify/otp", authValidator.VerifyOTP(), authController.VerifyOTP)
	authGroup.Get("/me", middleware.JWTMiddleware, authController.Me)
	authGroup.Get("/login/history", middleware.JWTMiddleware, authValidator.LoginHistoryList(), authController.LoginHistoryList)
	authGroup.Put("/change/password", middleware.JWTMiddleware, middleware.RequireKind(models.PrincipalStaff), authValidator.ChangePassword(), authController.ChangePassword)
}
