package candidateValidator

import (
	"strings"

	"hrms/models"
	"hrms/validators/common"

	"github.com/gofiber/fiber/v2"
)

// DraftRequest is the candidate form; every field is optional until submit.
type DraftRequest struct {
	FullName         string `json:"fullName" validate:"omitempty,max=150"`
	FatherName       string `json:"fatherName" validate:"omitempty,max=150"`
	DateOfBirth      string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Gender           string `json:"gender" validate:"omitempty,oneof=male female other"`
	MaritalStatus    string `json:"maritalStatus" validate:"omitempty,max=20"`
	BloodGroup       string `json:"bloodGroup" validate:"omitempty,max=10"`
	Email            string `json:"email" validate:"omitempty,email"`
	AlternatePhone   string `json:"alternatePhone" validate:"omitempty,mobile"`
	EmergencyContact string `json:"emergencyContact" validate:"omitempty,max=150"`
	EmergencyPhone   string `json:"emergencyPhone" validate:"omitempty,mobile"`
	CurrentAddress   string `json:"currentAddress"`
	PermanentAddress string `json:"permanentAddress"`
	City             string `json:"city" validate:"omitempty,max=100"`
	State            string `json:"state" validate:"omitempty,max=100"`
	PinCode          string `json:"pinCode" validate:"omitempty,pincode"`

	BankAccountNumber string `json:"bankAccountNumber" validate:"omitempty,numeric,min=6,max=30"`
	BankIFSC          string `json:"bankIfsc" validate:"omitempty,len=11"`
	BankName          string `json:"bankName" validate:"omitempty,max=100"`

	AadhaarNumber string `json:"aadhaarNumber" validate:"omitempty,aadhaar"`
	PanNumber     string `json:"panNumber" validate:"omitempty,pan"`

	Education  []models.Education     `json:"education" validate:"omitempty,max=10"`
	Experience []models.Experience    `json:"experience" validate:"omitempty,max=20"`
	Extras     map[string]interface{} `json:"extras"`

	OutletID *uint `json:"outletId"`
	RoleID   *uint `json:"roleId"`
}

type EmailOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyEmailOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type AadhaarLinkRequest struct {
	RedirectURL string `json:"redirectUrl" validate:"required,url"`
}

type AadhaarCompleteRequest struct {
	ClientID string `json:"clientId" validate:"required"`
}

type PANRequest struct {
	PanNumber string `json:"panNumber" validate:"required,pan"`
}

// SaveDraft validator middleware
func SaveDraft() fiber.Handler {
	return common.Body[DraftRequest]("validatedDraft", func(r *DraftRequest, _ map[string]string) {
		r.PanNumber = strings.ToUpper(strings.TrimSpace(r.PanNumber))
		r.BankIFSC = strings.ToUpper(strings.TrimSpace(r.BankIFSC))
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	})
}

func SendEmailOTP() fiber.Handler {
	return common.Body[EmailOTPRequest]("validatedEmailOTP")
}

func VerifyEmailOTP() fiber.Handler {
	return common.Body[VerifyEmailOTPRequest]("validatedVerifyEmailOTP")
}

func AadhaarLink() fiber.Handler {
	return common.Body[AadhaarLinkRequest]("validatedAadhaarLink")
}

func AadhaarComplete() fiber.Handler {
	return common.Body[AadhaarCompleteRequest]("validatedAadhaarComplete")
}

func VerifyPAN() fiber.Handler {
	return common.Body[PANRequest]("validatedPAN", func(r *PANRequest, errors map[string]string) {
		if up := strings.ToUpper(strings.TrimSpace(r.PanNumber)); up != r.PanNumber {
			r.PanNumber = up
			if common.Struct(r) == nil {
				delete(errors, "panNumber")
			}
		}
	})
}

// UploadDocument checks the slot name and that a file part is present.
func UploadDocument() fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := map[string]string{}
		slot := c.Params("slot")
		known := false
		for _, s := range models.DocumentSlots {
			if s == slot {
				known = true
				break
			}
		}
		if !known {
			errors["slot"] = "Unknown document type!"
		}
		if _, err := c.FormFile("file"); err != nil {
			errors["file"] = "file is required!"
		}
		if len(errors) > 0 {
			return common.FieldErrors(c, errors)
		}
		return c.Next()
	}
}
