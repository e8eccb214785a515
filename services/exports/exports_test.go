package exports

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"hrms/apperror"
	"hrms/database/dbtest"
	"hrms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	svc    *Service
	clock  time.Time
	admin  *models.Principal
	coach  *models.Principal
	mine   models.Outlet
	theirs models.Outlet
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: dbtest.Open(t), clock: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)}
	f.svc = New(f.db, Options{
		TTL:           24 * time.Hour,
		PublicBaseURL: "https://hr.example.com",
		Now:           func() time.Time { return f.clock },
	})

	admin := models.StaffAccount{Name: "Admin", Email: "admin@example.com", Password: "x", Role: models.RoleSuperAdmin, IsActive: true}
	coach := models.StaffAccount{Name: "Coach", Email: "coach@example.com", Password: "x", Role: models.RoleFieldCoach, IsActive: true}
	require.NoError(t, f.db.Create(&admin).Error)
	require.NoError(t, f.db.Create(&coach).Error)
	f.admin = &models.Principal{ID: admin.ID, Role: admin.Role, Kind: models.PrincipalStaff}
	f.coach = &models.Principal{ID: coach.ID, Role: coach.Role, Kind: models.PrincipalStaff}

	f.mine = models.Outlet{Code: "HYD-01", Name: "Banjara Hills", IsActive: true, FieldCoachID: &coach.ID}
	f.theirs = models.Outlet{Code: "HYD-02", Name: "Gachibowli", IsActive: true}
	require.NoError(t, f.db.Create(&f.mine).Error)
	require.NoError(t, f.db.Create(&f.theirs).Error)

	f.employee(t, "Ravi Kumar", "9000000001", f.mine.ID, "123456789012")
	f.employee(t, "Sana Iqbal", "9000000002", f.theirs.ID, "999988887777")
	return f
}

func (f *fixture) employee(t *testing.T, name, phone string, outletID uint, aadhaar string) {
	t.Helper()
	o := models.Onboarding{
		FullName:       name,
		Phone:          phone,
		AadhaarNumber:  aadhaar,
		OutletID:       &outletID,
		Status:         models.StatusApproved,
		EmployeeStatus: models.EmployeeActive,
	}
	require.NoError(t, f.db.Create(&o).Error)
}

func TestRowsAreScoped(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	all, err := f.svc.Rows(ctx, f.admin, models.ExportFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.Rows(ctx, f.coach, models.ExportFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Ravi Kumar", mine[0].FullName)
	require.NotNil(t, mine[0].Outlet)
	assert.Equal(t, "HYD-01", mine[0].Outlet.Code)
}

func TestIssueLinkFreezesScope(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	link, err := f.svc.IssueLink(ctx, f.coach, models.ExportFilter{OutletIDs: []uint{f.mine.ID, f.theirs.ID}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "https://hr.example.com/public/export/"))
	assert.Equal(t, f.clock.Add(24*time.Hour), link.ExpiresAt)

	filter, err := f.svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.mine.ID}, filter.OutletIDs)

	rows, err := f.svc.Rows(ctx, nil, *filter)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ravi Kumar", rows[0].FullName)
}

func TestIssueLinkOutsideScope(t *testing.T) {
	f := setup(t)
	_, err := f.svc.IssueLink(context.Background(), f.coach, models.ExportFilter{OutletIDs: []uint{f.theirs.ID}})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = f.svc.IssueLink(context.Background(), f.admin, models.ExportFilter{Status: "hired"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestResolveExpiryAndSweep(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Resolve(ctx, "nope")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	link, err := f.svc.IssueLink(ctx, f.admin, models.ExportFilter{})
	require.NoError(t, err)

	f.clock = f.clock.Add(24 * time.Hour)
	_, err = f.svc.Resolve(ctx, link.Token)
	assert.Equal(t, apperror.KindExpired, apperror.KindOf(err))

	f.clock = f.clock.Add(time.Second)
	n, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.svc.Resolve(ctx, link.Token)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestWriteCSVMasksAadhaar(t *testing.T) {
	f := setup(t)
	rows, err := f.svc.Rows(context.Background(), f.admin, models.ExportFilter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, []string{"fullName", "aadhaar", "outletCode"}, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Full Name,Aadhaar,Outlet Code", lines[0])
	assert.Equal(t, "Ravi Kumar,XXXX-XXXX-9012,HYD-01", lines[1])
	assert.NotContains(t, buf.String(), "123456789012")
}

func TestWriteJSON(t *testing.T) {
	f := setup(t)
	rows, err := f.svc.Rows(context.Background(), f.admin, models.ExportFilter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, []string{"phone", "employeeStatus"}, rows))

	var out []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, map[string]string{"phone": "9000000001", "employeeStatus": "active"}, out[0])
}

func TestWriteRejectsUnknownField(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, FormatCSV, []string{"salary"}, nil)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	err = Write(&buf, "xml", nil, nil)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
