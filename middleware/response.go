package middleware

import (
	"errors"
	"log"
	"strconv"

	"hrms/apperror"
	"hrms/config"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, success bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"success": success,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return ErrorResponse(c, apperror.ValidationFields(errors))
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindInvalidState, apperror.KindInvalidCode:
		return fiber.StatusBadRequest
	case apperror.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindExpired:
		return fiber.StatusGone
	case apperror.KindRateLimited:
		return fiber.StatusTooManyRequests
	case apperror.KindUpstream:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// ErrorResponse writes err in the standard envelope
func ErrorResponse(c *fiber.Ctx, err error) error {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal("Something went wrong!", err)
	}
	status := StatusFor(appErr.Kind)

	body := fiber.Map{
		"code": appErr.Kind,
	}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	for k, v := range appErr.Details {
		body[k] = v
	}
	if status == fiber.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
		if appErr.Err != nil && config.AppConfig != nil && !config.AppConfig.IsProduction() {
			body["detail"] = appErr.Err.Error()
		}
	}
	if appErr.Kind == apperror.KindRateLimited {
		if secs, ok := appErr.Details["retryAfter"].(int); ok {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": appErr.Message,
		"data":    nil,
		"error":   body,
	})
}

func kindForStatus(status int) apperror.Kind {
	switch {
	case status == fiber.StatusNotFound:
		return apperror.KindNotFound
	case status == fiber.StatusUnauthorized:
		return apperror.KindUnauthenticated
	case status == fiber.StatusForbidden:
		return apperror.KindForbidden
	case status == fiber.StatusTooManyRequests:
		return apperror.KindRateLimited
	case status < 500:
		return apperror.KindValidation
	}
	return apperror.KindInternal
}

// ErrorHandler is the Fiber app error handler for errors that escape the handlers
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"success": false,
			"message": fe.Message,
			"data":    nil,
			"error":   fiber.Map{"code": kindForStatus(fe.Code)},
		})
	}
	return ErrorResponse(c, err)
}
