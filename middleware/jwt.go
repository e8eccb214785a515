package middleware

import (
	"fmt"
	"strings"
	"time"

	"hrms/apperror"
	"hrms/config"
	"hrms/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// PrincipalKey is the c.Locals key JWTMiddleware stores the caller under
const PrincipalKey = "principal"

// GenerateJWT signs a session token for the principal
func GenerateJWT(p models.Principal) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": p.ID,
		"role":   p.Role,
		"kind":   p.Kind,
		"iat":    now.Unix(),                              // issued at
		"exp":    now.Add(config.AppConfig.JWTTTL).Unix(), // expiry
	}
	if p.Phone != "" {
		claims["phone"] = p.Phone
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	jwtSecret := []byte(config.AppConfig.JWTKey)

	return token.SignedString(jwtSecret)
}

// ParseJWT validates tokenString and returns the principal it names
func ParseJWT(tokenString string) (*models.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Check if the token method is valid
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.Unauthenticated("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperror.Unauthenticated("Invalid token payload")
	}
	// JWT numbers decode as float64
	userID, _ := claims["userId"].(float64)
	role, _ := claims["role"].(string)
	kind, _ := claims["kind"].(string)
	phone, _ := claims["phone"].(string)

	p := &models.Principal{ID: uint(userID), Role: role, Kind: kind, Phone: phone}
	switch kind {
	case models.PrincipalStaff, models.PrincipalOutlet:
		if p.ID == 0 || role == "" {
			return nil, apperror.Unauthenticated("Invalid token payload")
		}
	case models.PrincipalCandidate:
		if phone == "" || role != models.RoleCandidate {
			return nil, apperror.Unauthenticated("Invalid token payload")
		}
	default:
		return nil, apperror.Unauthenticated("Invalid token payload")
	}
	return p, nil
}

// JWTMiddleware checks the bearer token and stores the principal in the request context
func JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ErrorResponse(c, apperror.Unauthenticated("Missing or invalid Authorization header"))
	}

	// The token should be prefixed with "Bearer "
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ErrorResponse(c, apperror.Unauthenticated("Invalid Authorization header format"))
	}

	p, err := ParseJWT(authHeader[len("Bearer "):])
	if err != nil {
		return ErrorResponse(c, err)
	}

	c.Locals(PrincipalKey, p)
	return c.Next()
}

// CurrentPrincipal returns the caller set by JWTMiddleware, or nil
func CurrentPrincipal(c *fiber.Ctx) *models.Principal {
	p, _ := c.Locals(PrincipalKey).(*models.Principal)
	return p
}
