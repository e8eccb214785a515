package authController

import (
	"errors"
	"log"
	"time"

	"hrms/apperror"
	"hrms/config"
	"hrms/database"
	"hrms/middleware"
	"hrms/models"
	"hrms/services"
	"hrms/services/lifecycle"
	"hrms/services/verification"
	authValidator "hrms/validators/auth"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxFailedLogins = 3
	loginBlockFor   = 15 * time.Minute
)

func clientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return c.IP()
}

func trackLogin(c *fiber.Ctx, id uint, kind string) {
	tracking := models.LoginTracking{
		PrincipalID:   id,
		PrincipalKind: kind,
		IPAddress:     clientIP(c),
		Device:        c.Get("User-Agent"),
		Timestamp:     time.Now(),
	}
	log.Printf("[AUTH] %s %d logged in from IP: %s", kind, id, tracking.IPAddress)
	if err := database.Database.Db.Create(&tracking).Error; err != nil {
		log.Printf("[AUTH] failed to save login tracking: %v", err)
	}
}

// Login signs a staff member in with email and password
func Login(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	db := database.Database.Db

	var staff models.StaffAccount
	if err := db.Where("email = ?", reqData.Email).First(&staff).Error; err != nil {
		return middleware.ErrorResponse(c, apperror.Unauthenticated("Invalid credentials!"))
	}

	now := time.Now()
	if staff.BlockedUntil != nil && staff.BlockedUntil.After(now) {
		return middleware.ErrorResponse(c, apperror.Unauthenticated("Your account is temporarily blocked. Try again later."))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(reqData.Password)); err != nil {
		updates := map[string]interface{}{"failed_login_attempts": gorm.Expr("failed_login_attempts + 1")}
		// Block after 3 failed attempts
		if staff.FailedLoginAttempts+1 >= maxFailedLogins {
			updates["failed_login_attempts"] = 0
			updates["blocked_until"] = now.Add(loginBlockFor)
			log.Printf("[AUTH] staff %d blocked after %d failed logins", staff.ID, maxFailedLogins)
		}
		if err := db.Model(&staff).Updates(updates).Error; err != nil {
			log.Printf("[AUTH] failed to record failed login: %v", err)
		}
		return middleware.ErrorResponse(c, apperror.Unauthenticated("Invalid credentials!"))
	}
	if !staff.IsActive {
		return middleware.ErrorResponse(c, apperror.Forbidden("Your account has been deactivated!"))
	}

	if err := db.Model(&staff).Updates(map[string]interface{}{
		"last_login":            now,
		"failed_login_attempts": 0,
		"blocked_until":         nil,
	}).Error; err != nil {
		log.Printf("[AUTH] failed to save last login: %v", err)
	}
	trackLogin(c, staff.ID, models.PrincipalStaff)

	token, err := middleware.GenerateJWT(models.Principal{ID: staff.ID, Role: staff.Role, Kind: models.PrincipalStaff})
	if err != nil {
		return middleware.ErrorResponse(c, apperror.Internal("Failed to generate token", err))
	}
	staff.LastLogin = &now

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":  staff,
		"token": token,
	})
}

// OutletLogin signs an outlet in with its code and password; the session acts as the outlet's store manager
func OutletLogin(c *fiber.Ctx) error {
	reqData := c.Locals("validatedOutletLogin").(*authValidator.OutletLoginRequest)

	var outlet models.Outlet
	if err := database.Database.Db.Where("code = ?", reqData.Code).First(&outlet).Error; err != nil {
		return middleware.ErrorResponse(c, apperror.Unauthenticated("Invalid credentials!"))
	}
	if outlet.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(outlet.PasswordHash), []byte(reqData.Password)) != nil {
		return middleware.ErrorResponse(c, apperror.Unauthenticated("Invalid credentials!"))
	}
	if !outlet.IsActive {
		return middleware.ErrorResponse(c, apperror.Forbidden("This outlet is inactive!"))
	}
	trackLogin(c, outlet.ID, models.PrincipalOutlet)

	token, err := middleware.GenerateJWT(models.Principal{ID: outlet.ID, Role: models.RoleStoreManager, Kind: models.PrincipalOutlet})
	if err != nil {
		return middleware.ErrorResponse(c, apperror.Internal("Failed to generate token", err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"outlet": outlet,
		"token":  token,
	})
}

// SendOTP issues a code to a phone (candidate sign-in) or an email address
func SendOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedSendOTP").(*authValidator.SendOTPRequest)

	issued, err := services.App.OTP.Send(c.UserContext(), reqData.Contact, reqData.Channel)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully.", issued)
}

// VerifyOTP checks a code. A verified phone starts a candidate session.
func VerifyOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedVerifyOTP").(*authValidator.VerifyOTPRequest)
	ctx := c.UserContext()

	if err := services.App.OTP.Verify(ctx, reqData.Contact, reqData.Channel, reqData.Code); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	data := fiber.Map{"verified": true}

	if reqData.Channel == models.ChannelPhone {
		phone := verification.NormalizeContact(reqData.Contact, reqData.Channel)
		token, err := middleware.GenerateJWT(models.Principal{Role: models.RoleCandidate, Kind: models.PrincipalCandidate, Phone: phone})
		if err != nil {
			return middleware.ErrorResponse(c, apperror.Internal("Failed to generate token", err))
		}
		data["token"] = token

		// an open draft gets the phone flag straight away
		_, err = services.App.Lifecycle.FindDraftByPhone(ctx, phone)
		switch {
		case err == nil:
			if _, err := services.App.Lifecycle.SaveDraft(ctx, lifecycle.DraftInput{Phone: phone, PhoneVerified: true}); err != nil {
				log.Printf("[AUTH] failed to mark phone verified for %s: %v", phone, err)
			}
		case !errors.Is(err, apperror.ErrNotFound):
			log.Printf("[AUTH] draft lookup for candidate failed: %v", err)
		}
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP verified successfully.", data)
}

// Me returns the account behind the session
func Me(c *fiber.Ctx) error {
	p := middleware.CurrentPrincipal(c)
	db := database.Database.Db

	switch p.Kind {
	case models.PrincipalStaff:
		var staff models.StaffAccount
		if err := db.First(&staff, p.ID).Error; err != nil {
			return middleware.ErrorResponse(c, apperror.NotFound("Account not found!"))
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched.", fiber.Map{"principal": p, "user": staff})
	case models.PrincipalOutlet:
		var outlet models.Outlet
		if err := db.First(&outlet, p.ID).Error; err != nil {
			return middleware.ErrorResponse(c, apperror.NotFound("Outlet not found!"))
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched.", fiber.Map{"principal": p, "outlet": outlet})
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched.", fiber.Map{"principal": p})
}

// ChangePassword updates the password of the logged-in staff member
func ChangePassword(c *fiber.Ctx) error {
	p := middleware.CurrentPrincipal(c)
	reqData := c.Locals("validatedChangePassword").(*authValidator.ChangePasswordRequest)
	db := database.Database.Db

	var staff models.StaffAccount
	if err := db.First(&staff, p.ID).Error; err != nil {
		return middleware.ErrorResponse(c, apperror.NotFound("Account not found!"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(reqData.CurrentPassword)); err != nil {
		return middleware.ErrorResponse(c, apperror.Unauthenticated("Current password is incorrect!"))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reqData.NewPassword), config.AppConfig.SaltRound)
	if err != nil {
		return middleware.ErrorResponse(c, apperror.Internal("Failed to process your request!", err))
	}
	if err := db.Model(&staff).Update("password", string(hash)).Error; err != nil {
		return middleware.ErrorResponse(c, apperror.Internal("Failed to update password!", err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password updated successfully.", nil)
}

// LoginHistoryList pages through the caller's own logins
func LoginHistoryList(c *fiber.Ctx) error {
	p := middleware.CurrentPrincipal(c)
	reqData := c.Locals("validatedLoginHistory").(*authValidator.LoginHistoryQuery)

	page, limit := reqData.Page, reqData.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	q := database.Database.Db.Model(&models.LoginTracking{}).
		Where("principal_id = ? AND principal_kind = ?", p.ID, p.Kind)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return middleware.ErrorResponse(c, apperror.Internal("Failed to fetch login history!", err))
	}
	history := []models.LoginTracking{}
	if err := q.Order("timestamp DESC").Offset((page - 1) * limit).Limit(limit).Find(&history).Error; err != nil {
		return middleware.ErrorResponse(c, apperror.Internal("Failed to fetch login history!", err))
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login history fetched.", fiber.Map{
		"items": history,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
