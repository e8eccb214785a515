// Package common holds the shared request validator and the rules the area validators use.
package common

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"hrms/apperror"
	"hrms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	mobilePattern  = regexp.MustCompile(`^\d{10}$`)
	aadhaarPattern = regexp.MustCompile(`^\d{12}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	pinPattern     = regexp.MustCompile(`^\d{6}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report errors under the json field names clients send
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(f.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})

	rules := map[string]*regexp.Regexp{
		"mobile":  mobilePattern,
		"aadhaar": aadhaarPattern,
		"pan":     panPattern,
		"pincode": pinPattern,
	}
	for tag, re := range rules {
		re := re
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		})
	}
	return v
}

// IsValidMobile reports whether s is a 10 digit mobile number
func IsValidMobile(s string) bool {
	return mobilePattern.MatchString(s)
}

// Struct validates s and returns field errors keyed by json name, or nil.
func Struct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", fe.Field())
	case "email":
		return "Invalid email!"
	case "mobile":
		return "Invalid mobile number!"
	case "aadhaar":
		return "Aadhaar number must be 12 digits!"
	case "pan":
		return "Invalid PAN number!"
	case "pincode":
		return "Pin code must be 6 digits!"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long!", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s!", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long!", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s!", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters long!", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "url":
		return "Invalid URL!"
	case "numeric":
		return fmt.Sprintf("%s must be numeric!", fe.Field())
	}
	return fmt.Sprintf("%s is invalid!", fe.Field())
}

// Body parses the request body into a new T, validates it and stores it under key.
func Body[T any](key string, checks ...func(*T, map[string]string)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, apperror.Validation("Invalid request body!"))
		}
		return finish(c, key, reqData, checks)
	}
}

// Query is Body for query strings.
func Query[T any](key string, checks ...func(*T, map[string]string)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.ErrorResponse(c, apperror.Validation("Invalid query parameters!"))
		}
		return finish(c, key, reqData, checks)
	}
}

func finish[T any](c *fiber.Ctx, key string, reqData *T, checks []func(*T, map[string]string)) error {
	errors := Struct(reqData)
	if errors == nil {
		errors = map[string]string{}
	}
	for _, check := range checks {
		check(reqData, errors)
	}
	if len(errors) > 0 {
		return middleware.ValidationErrorResponse(c, errors)
	}
	c.Locals(key, reqData)
	return c.Next()
}

// Pagination is embedded by list queries.
type Pagination struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// ParamID reads a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFields(map[string]string{name: "Invalid id!"})
	}
	return uint(id), nil
}

// FieldErrors writes a validation failure for hand-written checks.
func FieldErrors(c *fiber.Ctx, errors map[string]string) error {
	return middleware.ValidationErrorResponse(c, errors)
}
