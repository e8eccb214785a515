package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hrms/database/dbtest"
	"hrms/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingNotifier struct{ kicks int32 }

func (n *countingNotifier) Kick() { atomic.AddInt32(&n.kicks, 1) }

type env struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	eng      *Engine
	clock    time.Time
	notifier *countingNotifier

	admin      *models.Principal
	coach      *models.Principal
	otherCoach *models.Principal
	manager    *models.Principal

	outlet      models.Outlet
	otherOutlet models.Outlet
	bareOutlet  models.Outlet
	role        models.RoleDefinition
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		t:        t,
		ctx:      context.Background(),
		db:       dbtest.Open(t),
		clock:    time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC),
		notifier: &countingNotifier{},
	}
	e.eng = New(e.db, Options{
		ApprovalTokenTTL: 48 * time.Hour,
		PublicBaseURL:    "https://hr.example.com",
		Now:              func() time.Time { return e.clock },
		Events:           e.notifier,
	})

	admin := e.staff("Asha Admin", "admin@example.com", models.RoleSuperAdmin)
	coach := e.staff("Chetan Coach", "coach@example.com", models.RoleFieldCoach)
	other := e.staff("Farah Coach", "farah@example.com", models.RoleFieldCoach)
	manager := e.staff("Mohan Manager", "manager@example.com", models.RoleStoreManager)

	e.outlet = models.Outlet{Code: "BLR-01", Name: "Indiranagar", IsActive: true, FieldCoachID: &coach.ID, ManagerID: &manager.ID}
	e.otherOutlet = models.Outlet{Code: "BLR-02", Name: "Koramangala", IsActive: true, FieldCoachID: &other.ID}
	e.bareOutlet = models.Outlet{Code: "BLR-03", Name: "Whitefield", IsActive: true}
	require.NoError(t, e.db.Create(&e.outlet).Error)
	require.NoError(t, e.db.Create(&e.otherOutlet).Error)
	require.NoError(t, e.db.Create(&e.bareOutlet).Error)

	e.role = models.RoleDefinition{Title: "Line Cook", Category: "kitchen", IsActive: true}
	require.NoError(t, e.db.Create(&e.role).Error)

	e.admin = principal(admin)
	e.coach = principal(coach)
	e.otherCoach = principal(other)
	e.manager = principal(manager)
	return e
}

func (e *env) staff(name, email, role string) models.StaffAccount {
	s := models.StaffAccount{Name: name, Email: email, Password: "x", Role: role, IsActive: true}
	require.NoError(e.t, e.db.Create(&s).Error)
	return s
}

func principal(s models.StaffAccount) *models.Principal {
	return &models.Principal{ID: s.ID, Role: s.Role, Kind: models.PrincipalStaff}
}

func (e *env) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

// readyDraft returns a draft that passes every submission gate.
func (e *env) readyDraft(phone, aadhaar string, outletID uint) *models.Onboarding {
	e.t.Helper()
	rec, err := e.eng.SaveDraft(e.ctx, DraftInput{
		Phone:         phone,
		FullName:      "Candidate " + phone,
		Email:         phone + "@mail.example.com",
		AadhaarNumber: aadhaar,
		OutletID:      &outletID,
		RoleID:        &e.role.ID,
		PhoneVerified: true,
	})
	require.NoError(e.t, err)

	e.verifyAadhaar(rec.ID, aadhaar)

	rec, err = e.eng.AttachDocument(e.ctx, rec.ID, models.DocumentPhoto, models.Document{
		Filename: "photo.jpg", StorageRef: "uploads/photo.jpg", MimeType: "image/jpeg", Size: 1024,
	})
	require.NoError(e.t, err)
	return rec
}

// verifyAadhaar runs a provider flow for id that reports number.
func (e *env) verifyAadhaar(id uint, number string) {
	e.t.Helper()
	clientID := fmt.Sprintf("kyc-%d", id)
	_, err := e.eng.BindAadhaarClient(e.ctx, id, clientID)
	require.NoError(e.t, err)
	_, err = e.eng.RecordVerification(e.ctx, id, VerificationResult{Flag: VerifiedAadhaar, ClientID: clientID, AadhaarNumber: number})
	require.NoError(e.t, err)
}

// approved runs a fresh candidate through to an approved employee at the main outlet.
func (e *env) approved(phone, aadhaar string) *models.Onboarding {
	e.t.Helper()
	rec := e.readyDraft(phone, aadhaar, e.outlet.ID)
	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(e.t, err)
	rec, err = e.eng.Approve(e.ctx, rec.ID, e.coach)
	require.NoError(e.t, err)
	return rec
}

func (e *env) events(id uint, eventType string) []models.LifecycleEvent {
	var out []models.LifecycleEvent
	require.NoError(e.t, e.db.Where("onboarding_id = ? AND type = ?", id, eventType).Order("id").Find(&out).Error)
	return out
}

// approvalToken pulls the raw token out of the latest approval link.
func (e *env) approvalToken(id uint) string {
	e.t.Helper()
	evs := e.events(id, models.EventApprovalRequested)
	require.NotEmpty(e.t, evs)
	link, _ := evs[len(evs)-1].Payload["approvalLink"].(string)
	i := strings.Index(link, "token=")
	require.True(e.t, i >= 0, "link without token: %q", link)
	return link[i+len("token="):]
}

func (e *env) reload(id uint) *models.Onboarding {
	var rec models.Onboarding
	require.NoError(e.t, e.db.First(&rec, id).Error)
	return &rec
}
