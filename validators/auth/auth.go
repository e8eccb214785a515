package authValidator

import (
	"strings"

	"hrms/models"
	"hrms/validators/common"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type OutletLoginRequest struct {
	Code     string `json:"code" validate:"required,max=30"`
	Password string `json:"password" validate:"required"`
}

type SendOTPRequest struct {
	Contact string `json:"contact" validate:"required"`
	Channel string `json:"channel" validate:"required,oneof=phone email"`
}

type VerifyOTPRequest struct {
	Contact string `json:"contact" validate:"required"`
	Channel string `json:"channel" validate:"required,oneof=phone email"`
	Code    string `json:"code" validate:"required,len=6,numeric"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type LoginHistoryQuery struct {
	common.Pagination
}

// Login validator middleware
func Login() fiber.Handler {
	return common.Body[LoginRequest]("validatedLogin", func(r *LoginRequest, _ map[string]string) {
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	})
}

func OutletLogin() fiber.Handler {
	return common.Body[OutletLoginRequest]("validatedOutletLogin", func(r *OutletLoginRequest, _ map[string]string) {
		r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	})
}

func contactCheck(channel, contact string, errors map[string]string) {
	if channel == models.ChannelPhone && !common.IsValidMobile(strings.TrimSpace(contact)) {
		errors["contact"] = "Invalid mobile number!"
	}
	if channel == models.ChannelEmail && !strings.Contains(contact, "@") {
		errors["contact"] = "Invalid email!"
	}
}

// SendOTP validator middleware
func SendOTP() fiber.Handler {
	return common.Body[SendOTPRequest]("validatedSendOTP", func(r *SendOTPRequest, errors map[string]string) {
		contactCheck(r.Channel, r.Contact, errors)
	})
}

// VerifyOTP validator middleware
func VerifyOTP() fiber.Handler {
	return common.Body[VerifyOTPRequest]("validatedVerifyOTP", func(r *VerifyOTPRequest, errors map[string]string) {
		contactCheck(r.Channel, r.Contact, errors)
	})
}

func ChangePassword() fiber.Handler {
	return common.Body[ChangePasswordRequest]("validatedChangePassword", func(r *ChangePasswordRequest, errors map[string]string) {
		if r.CurrentPassword != "" && r.CurrentPassword == r.NewPassword {
			errors["newPassword"] = "New password must differ from the current one!"
		}
	})
}

// LoginHistoryList validator middleware
func LoginHistoryList() fiber.Handler {
	return common.Query[LoginHistoryQuery]("validatedLoginHistory")
}
