package candidateRoutes

import (
	candidateController "hrms/controllers/candidate"
	"hrms/middleware"
	"hrms/models"
	candidateValidator "hrms/validators/candidate"

	"github.com/gofiber/fiber/v2"
)

// SetupCandidateRoutes mounts the applicant flow. Every route needs a phone-verified session.
func SetupCandidateRoutes(app *fiber.App) {
	candidateGroup := app.Group("/candidate", middleware.JWTMiddleware, middleware.RequireKind(models.PrincipalCandidate))

	candidateGroup.Get("/draft", candidateController.GetDraft)
	candidateGroup.Put("/draft", candidateValidator.SaveDraft(), candidateController.SaveDraft)
	candidateGroup.Post("/draft/documents/:slot", candidateValidator.UploadDocument(), candidateController.UploadDocument)
	candidateGroup.Post("/draft/submit", candidateController.Submit)

	// Verification
	candidateGroup.Post("/verify/email/send", candidateValidator.SendEmailOTP(), candidateController.SendEmailOTP)
	candidateGroup.Patch("/verify/email", candidateValidator.VerifyEmailOTP(), candidateController.VerifyEmailOTP)
	candidateGroup.Post("/verify/aadhaar/link", candidateValidator.AadhaarLink(), candidateController.InitiateAadhaar)
	candidateGroup.Post("/verify/aadhaar/complete", candidateValidator.AadhaarComplete(), candidateController.CompleteAadhaar)
	candidateGroup.Post("/verify/pan", candidateValidator.VerifyPAN(), candidateController.VerifyPAN)

	candidateGroup.Get("/applications", candidateController.MyApplications)
	candidateGroup.Get("/applications/:id", candidateController.GetApplication)
}
