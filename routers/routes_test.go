package routers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"hrms/config"
	"hrms/database"
	"hrms/database/dbtest"
	"hrms/middleware"
	"hrms/models"
	"hrms/services"
	"hrms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []utils.EmailContent
}

func (m *fakeMailer) Send(to []string, content utils.EmailContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, content)
	return nil
}

type fakeSMS struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *fakeSMS) SendOTP(ctx context.Context, mobile, otp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[mobile] = otp
	return nil
}

func (s *fakeSMS) code(mobile string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[mobile]
}

type fakeProvider struct{}

func (fakeProvider) InitiateLink(ctx context.Context, redirectURL string) (*utils.IdentityLink, error) {
	return &utils.IdentityLink{}, nil
}

func (fakeProvider) CheckStatus(ctx context.Context, clientID string) (*utils.IdentityStatus, error) {
	return &utils.IdentityStatus{}, nil
}

func (fakeProvider) VerifyPAN(ctx context.Context, pan string) (*utils.PANResult, error) {
	return &utils.PANResult{}, nil
}

type harness struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
	sms *fakeSMS
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	config.AppConfig = &config.Config{
		AppEnv:           "test",
		JWTKey:           "test-secret",
		JWTTTL:           time.Hour,
		SaltRound:        bcrypt.MinCost,
		PublicBaseURL:    "https://hr.example.com",
		UploadDir:        t.TempDir(),
		MaxUploadBytes:   5 * 1024 * 1024,
		ApprovalTokenTTL: 24 * time.Hour,
		ExportTokenTTL:   24 * time.Hour,
	}
	db := dbtest.Open(t)
	database.Database.Db = db

	sms := &fakeSMS{codes: map[string]string{}}
	services.App = services.Build(db, config.AppConfig, services.Deps{
		Mailer:   &fakeMailer{},
		SMS:      sms,
		Provider: fakeProvider{},
	})

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	SetupRoutes(app)
	return &harness{t: t, app: app, db: db, sms: sms}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func (h *harness) do(method, path, token string, body interface{}) (int, envelope) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (h *harness) seedStaff(email, role string) models.StaffAccount {
	h.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(h.t, err)
	s := models.StaffAccount{Name: email, Email: email, Password: string(hash), Role: role, IsActive: true}
	require.NoError(h.t, h.db.Create(&s).Error)
	return s
}

func (h *harness) login(email string) string {
	h.t.Helper()
	status, env := h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "password1"})
	require.Equal(h.t, http.StatusOK, status, env.Message)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(h.t, data.Token)
	return data.Token
}

func TestLoginAndErrors(t *testing.T) {
	h := newHarness(t)
	h.seedStaff("admin@example.com", models.RoleSuperAdmin)
	h.seedStaff("coach@example.com", models.RoleFieldCoach)

	status, env := h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)

	status, env = h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "email")
	assert.Contains(t, env.Error.Fields, "password")

	admin := h.login("admin@example.com")
	status, _ = h.do(http.MethodGet, "/auth/me", admin, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = h.do(http.MethodGet, "/staff", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	coach := h.login("coach@example.com")
	status, env = h.do(http.MethodGet, "/staff", coach, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	var tracked int64
	require.NoError(t, h.db.Model(&models.LoginTracking{}).Count(&tracked).Error)
	assert.EqualValues(t, 2, tracked)
}

func TestCandidateSession(t *testing.T) {
	h := newHarness(t)

	status, env := h.do(http.MethodPost, "/auth/send/otp", "", map[string]string{"contact": "9876543210", "channel": "phone"})
	require.Equal(t, http.StatusOK, status, env.Message)
	code := h.sms.code("9876543210")
	require.Len(t, code, 6)

	status, env = h.do(http.MethodPatch, "/auth/verify/otp", "", map[string]string{"contact": "9876543210", "channel": "phone", "code": code})
	require.Equal(t, http.StatusOK, status, env.Message)
	var verified struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	require.NotEmpty(t, verified.Token)

	status, env = h.do(http.MethodPut, "/candidate/draft", verified.Token, map[string]string{
		"fullName":      "Asha Rao",
		"aadhaarNumber": "123456789012",
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = h.do(http.MethodGet, "/candidate/draft", verified.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var draft struct {
		FullName         string `json:"fullName"`
		AadhaarNumber    string `json:"aadhaarNumber"`
		PhoneOtpVerified bool   `json:"phoneOtpVerified"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	assert.Equal(t, "Asha Rao", draft.FullName)
	assert.Equal(t, "XXXX-XXXX-9012", draft.AadhaarNumber)
	assert.True(t, draft.PhoneOtpVerified)

	// a candidate session cannot reach staff views
	status, _ = h.do(http.MethodGet, "/applications", verified.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = h.do(http.MethodPut, "/candidate/draft", verified.Token, map[string]string{"aadhaarNumber": "12"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error.Fields, "aadhaarNumber")
}

func TestCoachAssignmentAndTokenApproval(t *testing.T) {
	h := newHarness(t)
	h.seedStaff("admin@example.com", models.RoleSuperAdmin)
	admin := h.login("admin@example.com")

	status, env := h.do(http.MethodPost, "/staff", admin, map[string]string{
		"name": "Field Coach", "email": "coach@example.com", "password": "password1", "role": models.RoleFieldCoach,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var coach struct {
		ID uint `json:"ID"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &coach))

	status, env = h.do(http.MethodPost, "/outlets", admin, map[string]string{"code": "blr-01", "name": "Indiranagar"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var outlet struct {
		ID   uint   `json:"ID"`
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &outlet))
	assert.Equal(t, "BLR-01", outlet.Code)

	status, env = h.do(http.MethodPost, "/outlets", admin, map[string]string{"code": "BLR-02"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error.Fields, "name")

	now := time.Now()
	rec := models.Onboarding{
		Phone: "9000000042", FullName: "Kiran", AadhaarNumber: "987654321098",
		OutletID: &outlet.ID, Status: models.StatusSubmitted, EmployeeStatus: models.EmployeeActive, SubmittedAt: &now,
	}
	require.NoError(t, h.db.Create(&rec).Error)

	status, env = h.do(http.MethodPut, "/outlets/"+itoa(outlet.ID)+"/field-coach", admin, map[string]interface{}{"staffId": coach.ID})
	require.Equal(t, http.StatusOK, status, env.Message)
	var assigned struct {
		Dispatched int `json:"dispatched"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &assigned))
	assert.Equal(t, 1, assigned.Dispatched)

	var ev models.LifecycleEvent
	require.NoError(t, h.db.Where("onboarding_id = ? AND type = ?", rec.ID, models.EventApprovalRequested).First(&ev).Error)
	link, _ := ev.Payload["approvalLink"].(string)
	require.Contains(t, link, "token=")
	token := link[strings.Index(link, "token=")+len("token="):]
	base := "/public/approvals/" + itoa(rec.ID)

	status, env = h.do(http.MethodGet, base+"?token="+token, "", nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Contains(t, string(env.Data), "XXXX-XXXX-1098")
	assert.NotContains(t, string(env.Data), "987654321098")

	status, env = h.do(http.MethodPost, base+"/approve", "", map[string]string{"token": token})
	require.Equal(t, http.StatusOK, status, env.Message)

	// the token is single use
	status, _ = h.do(http.MethodPost, base+"/approve", "", map[string]string{"token": token})
	assert.GreaterOrEqual(t, status, 400)

	var after models.Onboarding
	require.NoError(t, h.db.First(&after, rec.ID).Error)
	assert.Equal(t, models.StatusApproved, after.Status)
	require.NotNil(t, after.EmployeeKey)

	req := httptest.NewRequest(http.MethodGet, "/admin/export?format=csv&fields=fullName,aadhaar,outletCode", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Kiran,XXXX-XXXX-1098,BLR-01")
}

func TestPublicPickers(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.db.Create(&models.Outlet{Code: "A", Name: "Open", IsActive: true}).Error)
	closed := models.Outlet{Code: "B", Name: "Closed", IsActive: true}
	require.NoError(t, h.db.Create(&closed).Error)
	require.NoError(t, h.db.Model(&closed).Update("is_active", false).Error)
	require.NoError(t, h.db.Create(&models.RoleDefinition{Title: "Cashier", IsActive: true}).Error)

	status, env := h.do(http.MethodGet, "/public/outlets", "", nil)
	require.Equal(t, http.StatusOK, status)
	var outlets []models.Outlet
	require.NoError(t, json.Unmarshal(env.Data, &outlets))
	require.Len(t, outlets, 1)
	assert.Equal(t, "Open", outlets[0].Name)

	status, env = h.do(http.MethodGet, "/public/roles", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "Cashier")

	status, env = h.do(http.MethodGet, "/public/export/deadbeef", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
