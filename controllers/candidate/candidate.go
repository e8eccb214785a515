package candidateController

import (
	"errors"
	"log"

	"hrms/apperror"
	"hrms/middleware"
	"hrms/models"
	"hrms/services"
	"hrms/services/lifecycle"
	"hrms/utils"
	candidateValidator "hrms/validators/candidate"
	"hrms/validators/common"

	"github.com/gofiber/fiber/v2"
)

// currentDraft loads the open draft of the candidate session
func currentDraft(c *fiber.Ctx) (*models.Onboarding, error) {
	p := middleware.CurrentPrincipal(c)
	return services.App.Lifecycle.FindDraftByPhone(c.UserContext(), p.Phone)
}

func draftResponse(c *fiber.Ctx, status int, message string, rec *models.Onboarding) error {
	return middleware.JsonResponse(c, status, true, message, utils.PresentOnboarding(rec))
}

// GetDraft returns the candidate's open draft
func GetDraft(c *fiber.Ctx) error {
	rec, err := currentDraft(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return draftResponse(c, fiber.StatusOK, "Draft fetched successfully.", rec)
}

// SaveDraft creates or updates the candidate's draft; fields left out keep their value
func SaveDraft(c *fiber.Ctx) error {
	p := middleware.CurrentPrincipal(c)
	reqData := c.Locals("validatedDraft").(*candidateValidator.DraftRequest)

	rec, err := services.App.Lifecycle.SaveDraft(c.UserContext(), lifecycle.DraftInput{
		Phone:             p.Phone,
		FullName:          reqData.FullName,
		FatherName:        reqData.FatherName,
		DateOfBirth:       reqData.DateOfBirth,
		Gender:            reqData.Gender,
		MaritalStatus:     reqData.MaritalStatus,
		BloodGroup:        reqData.BloodGroup,
		Email:             reqData.Email,
		AlternatePhone:    reqData.AlternatePhone,
		EmergencyContact:  reqData.EmergencyContact,
		EmergencyPhone:    reqData.EmergencyPhone,
		CurrentAddress:    reqData.CurrentAddress,
		PermanentAddress:  reqData.PermanentAddress,
		City:              reqData.City,
		State:             reqData.State,
		PinCode:           reqData.PinCode,
		BankAccountNumber: reqData.BankAccountNumber,
		BankIFSC:          reqData.BankIFSC,
		BankName:          reqData.BankName,
		AadhaarNumber:     reqData.AadhaarNumber,
		PanNumber:         reqData.PanNumber,
		Education:         reqData.Education,
		Experience:        reqData.Experience,
		Extras:            reqData.Extras,
		OutletID:          reqData.OutletID,
		RoleID:            reqData.RoleID,
		// the session itself was opened with a phone OTP
		PhoneVerified: true,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return draftResponse(c, fiber.StatusOK, "Draft saved successfully.", rec)
}

// UploadDocument stores one document into the named slot of the draft
func UploadDocument(c *fiber.Ctx) error {
	draft, err := currentDraft(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return common.FieldErrors(c, map[string]string{"file": "file is required!"})
	}
	doc, err := services.App.Documents.SaveUploadedFile(file)
	switch {
	case errors.Is(err, utils.ErrFileTooLarge):
		return common.FieldErrors(c, map[string]string{"file": "File is too large!"})
	case errors.Is(err, utils.ErrUnsupportedFile):
		return common.FieldErrors(c, map[string]string{"file": "Only images and PDF files are allowed!"})
	case err != nil:
		return middleware.ErrorResponse(c, apperror.Internal("Failed to store the document!", err))
	}

	rec, err := services.App.Lifecycle.AttachDocument(c.UserContext(), draft.ID, c.Params("slot"), doc)
	if err != nil {
		if rmErr := services.App.Documents.Remove(doc.StorageRef); rmErr != nil {
			log.Printf("[UPLOAD] failed to remove orphaned %s: %v", doc.StorageRef, rmErr)
		}
		return middleware.ErrorResponse(c, err)
	}
	return draftResponse(c, fiber.StatusOK, "Document uploaded successfully.", rec)
}

// SendEmailOTP sends a code to the email the candidate wants to verify
func SendEmailOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedEmailOTP").(*candidateValidator.EmailOTPRequest)
	if _, err := currentDraft(c); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	issued, err := services.App.OTP.Send(c.UserContext(), reqData.Email, models.ChannelEmail)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully.", issued)
}

// VerifyEmailOTP checks the code and marks the draft email as verified
func VerifyEmailOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedVerifyEmailOTP").(*candidateValidator.VerifyEmailOTPRequest)
	draft, err := currentDraft(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	ctx := c.UserContext()
	if err := services.App.OTP.Verify(ctx, reqData.Email, models.ChannelEmail, reqData.Code); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	rec, err := services.App.Lifecycle.RecordVerification(ctx, draft.ID, lifecycle.VerificationResult{
		Flag:  lifecycle.VerifiedEmail,
		Email: reqData.Email,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return draftResponse(c, fiber.StatusOK, "Email verified successfully.", rec)
}

// InitiateAadhaar starts the provider's Aadhaar flow
func InitiateAadhaar(c *fiber.Ctx) error {
	reqData := c.Locals("validatedAadhaarLink").(*candidateValidator.AadhaarLinkRequest)
	draft, err := currentDraft(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	link, err := services.App.Identity.InitiateLink(c.UserContext(), draft.ID, reqData.RedirectURL)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Aadhaar verification started.", link)
}

// CompleteAadhaar reads the flow result and records it on the draft
func CompleteAadhaar(c *fiber.Ctx) error {
	reqData := c.Locals("validatedAadhaarComplete").(*candidateValidator.AadhaarCompleteRequest)
	draft, err := currentDraft(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	rec, _, err := services.App.Identity.CompleteAadhaar(c.UserContext(), draft.ID, reqData.ClientID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return draftResponse(c, fiber.StatusOK, "Aadhaar verified successfully.", rec)
}

// VerifyPAN checks the PAN with the registry and records it on the draft
func VerifyPAN(c *fiber.Ctx) error {
	reqData := c.Locals("validatedPAN").(*candidateValidator.PANRequest)
	draft, err := currentDraft(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	rec, res, err := services.App.Identity.VerifyPAN(c.UserContext(), draft.ID, reqData.PanNumber)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "PAN verified successfully.", fiber.Map{
		"application": utils.PresentOnboarding(rec),
		"nameOnCard":  res.NameOnCard,
	})
}

// Submit sends the draft for approval
func Submit(c *fiber.Ctx) error {
	draft, err := currentDraft(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	rec, err := services.App.Lifecycle.Submit(c.UserContext(), draft.ID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return draftResponse(c, fiber.StatusOK, "Application submitted successfully.", rec)
}

// MyApplications lists every application made from the session phone
func MyApplications(c *fiber.Ctx) error {
	p := middleware.CurrentPrincipal(c)
	list, err := services.App.Lifecycle.CandidateApplications(c.UserContext(), p.Phone)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Applications fetched successfully.", utils.PresentOnboardings(list))
}

// GetApplication returns one of the candidate's applications with its status
func GetApplication(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	p := middleware.CurrentPrincipal(c)
	rec, err := services.App.Lifecycle.GetForCandidate(c.UserContext(), id, p.Phone)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return draftResponse(c, fiber.StatusOK, "Application fetched successfully.", rec)
}
