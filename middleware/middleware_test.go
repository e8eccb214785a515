package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"hrms/apperror"
	"hrms/config"
	"hrms/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setConfig(t *testing.T) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{JWTKey: "unit-test", JWTTTL: time.Hour, AppEnv: "development"}
	t.Cleanup(func() { config.AppConfig = prev })
}

func TestJWTRoundTrip(t *testing.T) {
	setConfig(t)

	token, err := GenerateJWT(models.Principal{ID: 7, Role: models.RoleFieldCoach, Kind: models.PrincipalStaff})
	require.NoError(t, err)
	p, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), p.ID)
	assert.Equal(t, models.RoleFieldCoach, p.Role)

	token, err = GenerateJWT(models.Principal{Role: models.RoleCandidate, Kind: models.PrincipalCandidate, Phone: "9876543210"})
	require.NoError(t, err)
	p, err = ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "9876543210", p.Phone)
}

func TestParseJWTRejects(t *testing.T) {
	setConfig(t)

	sign := func(claims jwt.MapClaims, key string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	cases := map[string]string{
		"wrong key":       sign(jwt.MapClaims{"userId": 1, "role": "super_admin", "kind": "staff", "exp": exp}, "other"),
		"expired":         sign(jwt.MapClaims{"userId": 1, "role": "super_admin", "kind": "staff", "exp": time.Now().Add(-time.Minute).Unix()}, "unit-test"),
		"no kind":         sign(jwt.MapClaims{"userId": 1, "role": "super_admin", "exp": exp}, "unit-test"),
		"candidate phone": sign(jwt.MapClaims{"role": "candidate", "kind": "candidate", "exp": exp}, "unit-test"),
		"staff id":        sign(jwt.MapClaims{"role": "super_admin", "kind": "staff", "exp": exp}, "unit-test"),
		"garbage":         "not.a.token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJWT(token)
			assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))
		})
	}
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRequireRoles(t *testing.T) {
	setConfig(t)
	app := fiber.New()
	app.Get("/admin", JWTMiddleware, RequireRoles(models.RoleSuperAdmin), func(c *fiber.Ctx) error {
		return JsonResponse(c, fiber.StatusOK, true, "ok", CurrentPrincipal(c))
	})

	call := func(token string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := call("")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	coach, err := GenerateJWT(models.Principal{ID: 2, Role: models.RoleFieldCoach, Kind: models.PrincipalStaff})
	require.NoError(t, err)
	resp = call(coach)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "FORBIDDEN", body["error"].(map[string]interface{})["code"])

	admin, err := GenerateJWT(models.Principal{ID: 1, Role: models.RoleSuperAdmin, Kind: models.PrincipalStaff})
	require.NoError(t, err)
	resp = call(admin)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestErrorResponseEnvelope(t *testing.T) {
	setConfig(t)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/limited", func(c *fiber.Ctx) error {
		return ErrorResponse(c, apperror.RateLimited("Slow down!", 42))
	})
	app.Get("/fields", func(c *fiber.Ctx) error {
		return ValidationErrorResponse(c, map[string]string{"phone": "phone is required!"})
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return ErrorResponse(c, errors.New("db down"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "42", resp.Header.Get(fiber.HeaderRetryAfter))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/fields", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	fields := body["error"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Equal(t, "phone is required!", fields["phone"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body = decode(t, resp)
	assert.Equal(t, "db down", body["error"].(map[string]interface{})["detail"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body = decode(t, resp)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]interface{})["code"])
}

func TestStatusFor(t *testing.T) {
	want := map[apperror.Kind]int{
		apperror.KindValidation:      400,
		apperror.KindInvalidState:    400,
		apperror.KindInvalidCode:     400,
		apperror.KindUnauthenticated: 401,
		apperror.KindForbidden:       403,
		apperror.KindNotFound:        404,
		apperror.KindConflict:        409,
		apperror.KindExpired:         410,
		apperror.KindRateLimited:     429,
		apperror.KindUpstream:        502,
		apperror.KindInternal:        500,
	}
	for kind, status := range want {
		assert.Equal(t, status, StatusFor(kind), string(kind))
	}
}

type denyAll struct{ calls int }

func (d *denyAll) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	d.calls++
	return false, 1500 * time.Millisecond, nil
}

func TestRateLimit(t *testing.T) {
	setConfig(t)
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

	app := fiber.New()
	app.Post("/local", RateLimit("local", nil, 2, time.Minute), ok)
	deny := &denyAll{}
	app.Post("/shared", RateLimit("shared", deny, 2, time.Minute), ok)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/local", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/local", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", decode(t, resp)["error"].(map[string]interface{})["code"])

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/shared", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, 1, deny.calls)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	return false, 0, errors.New("dial tcp: connection refused")
}

func TestRateLimitFailsOpenAndLogs(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	app := fiber.New()
	app.Post("/login", RateLimit("login", brokenLimiter{}, 1, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, buf.String(), "[RATELIMIT] login check failed")
	assert.Contains(t, buf.String(), "connection refused")
}
