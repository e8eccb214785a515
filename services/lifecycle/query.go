package lifecycle

import (
	"context"
	"errors"
	"strings"

	"hrms/apperror"
	"hrms/models"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// ListFilter narrows application listings. Page is 1-based.
type ListFilter struct {
	models.ExportFilter
	Page  int
	Limit int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
}

// Page is one page of results with the unpaged total.
type Page struct {
	Items []models.Onboarding `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// ApplyFilter adds the filter's conditions to q. Unknown status values are rejected so a typo
// does not silently return everything.
func ApplyFilter(q *gorm.DB, f models.ExportFilter) (*gorm.DB, error) {
	if f.Status != "" {
		st := models.ApplicationStatus(f.Status)
		if !st.Valid() {
			return nil, apperror.ValidationFields(map[string]string{"status": "Unknown application status!"})
		}
		q = q.Where("onboardings.status = ?", st)
	}
	if f.EmployeeStatus != "" {
		es := models.EmployeeStatus(f.EmployeeStatus)
		if !es.Valid() {
			return nil, apperror.ValidationFields(map[string]string{"employeeStatus": "Unknown employee status!"})
		}
		q = q.Where("onboardings.status = ? AND onboardings.employee_status = ?", models.StatusApproved, es)
	}
	if len(f.OutletIDs) > 0 {
		q = q.Where("onboardings.outlet_id IN ?", f.OutletIDs)
	}
	if f.RoleID != nil {
		q = q.Where("onboardings.role_id = ?", *f.RoleID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(onboardings.full_name) LIKE ? OR onboardings.phone LIKE ? OR LOWER(onboardings.email) LIKE ? OR LOWER(onboardings.employee_key) LIKE ?)",
			like, like, like, like)
	}
	if f.From != "" {
		t, err := now.Parse(f.From)
		if err != nil {
			return nil, apperror.ValidationFields(map[string]string{"from": "Invalid date!"})
		}
		q = q.Where("onboardings.created_at >= ?", now.With(t).BeginningOfDay())
	}
	if f.To != "" {
		t, err := now.Parse(f.To)
		if err != nil {
			return nil, apperror.ValidationFields(map[string]string{"to": "Invalid date!"})
		}
		q = q.Where("onboardings.created_at <= ?", now.With(t).EndOfDay())
	}
	return q, nil
}

// List returns the applications visible to actor that match f, newest first.
func (e *Engine) List(ctx context.Context, actor *models.Principal, f ListFilter) (*Page, error) {
	f.normalize()
	db := e.db.WithContext(ctx)

	scope, err := ScopeFor(db, actor)
	if err != nil {
		return nil, err
	}
	q, err := ApplyFilter(scope.Apply(db.Model(&models.Onboarding{}), "onboardings.outlet_id"), f.ExportFilter)
	if err != nil {
		return nil, err
	}

	page := &Page{Items: []models.Onboarding{}, Page: f.Page, Limit: f.Limit}
	if err := q.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return nil, apperror.Internal("Failed to count applications!", err)
	}
	if err := preloaded(q).
		Order("onboardings.created_at DESC").
		Order("onboardings.id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&page.Items).Error; err != nil {
		return nil, apperror.Internal("Failed to list applications!", err)
	}
	return page, nil
}

// Get returns one application if it is inside actor's scope.
func (e *Engine) Get(ctx context.Context, actor *models.Principal, id uint) (*models.Onboarding, error) {
	db := e.db.WithContext(ctx)
	rec, err := loadForUpdate(db, id)
	if err != nil {
		return nil, err
	}
	scope, err := ScopeFor(db, actor)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(rec.OutletID) {
		return nil, apperror.Forbidden("This application is outside your assigned outlets!")
	}
	return rec, nil
}

// Events returns the outbox history of one application, oldest first.
func (e *Engine) Events(ctx context.Context, actor *models.Principal, id uint) ([]models.LifecycleEvent, error) {
	if _, err := e.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	events := []models.LifecycleEvent{}
	if err := e.db.WithContext(ctx).
		Where("onboarding_id = ?", id).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, apperror.Internal("Failed to load application history!", err)
	}
	for i := range events {
		if events[i].Sensitive {
			delete(events[i].Payload, "approvalLink")
		}
	}
	return events, nil
}

// FindDraftByPhone returns the open draft of phone, if any.
func (e *Engine) FindDraftByPhone(ctx context.Context, phone string) (*models.Onboarding, error) {
	var rec models.Onboarding
	err := preloaded(e.db.WithContext(ctx)).
		Where("phone = ? AND status IN ?", phone, []models.ApplicationStatus{models.StatusDraft, models.StatusInProgress}).
		Order("id DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("No draft found for this phone number!")
	}
	if err != nil {
		return nil, apperror.Internal("Failed to load draft!", err)
	}
	return &rec, nil
}

// GetForCandidate returns id only if it belongs to phone.
func (e *Engine) GetForCandidate(ctx context.Context, id uint, phone string) (*models.Onboarding, error) {
	rec, err := loadForUpdate(e.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if rec.Phone != phone {
		return nil, apperror.Forbidden("This application does not belong to you!")
	}
	return rec, nil
}

// CandidateApplications lists every application ever made from phone.
func (e *Engine) CandidateApplications(ctx context.Context, phone string) ([]models.Onboarding, error) {
	out := []models.Onboarding{}
	if err := preloaded(e.db.WithContext(ctx)).
		Where("phone = ?", phone).
		Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, apperror.Internal("Failed to load applications!", err)
	}
	return out, nil
}

// Stats summarises the applications visible to actor.
type Stats struct {
	Total            int64            `json:"total"`
	ByStatus         map[string]int64 `json:"byStatus"`
	ByEmployeeStatus map[string]int64 `json:"byEmployeeStatus"`
	SubmittedToday   int64            `json:"submittedToday"`
	SubmittedWeek    int64            `json:"submittedThisWeek"`
	SubmittedMonth   int64            `json:"submittedThisMonth"`
	ApprovedMonth    int64            `json:"approvedThisMonth"`
}

type countRow struct {
	Label string
	Count int64
}

func (e *Engine) Stats(ctx context.Context, actor *models.Principal) (*Stats, error) {
	db := e.db.WithContext(ctx)
	scope, err := ScopeFor(db, actor)
	if err != nil {
		return nil, err
	}
	base := func() *gorm.DB {
		return scope.Apply(db.Model(&models.Onboarding{}), "onboardings.outlet_id")
	}

	st := &Stats{ByStatus: map[string]int64{}, ByEmployeeStatus: map[string]int64{}}
	for _, s := range models.ApplicationStatuses {
		st.ByStatus[string(s)] = 0
	}
	for _, s := range models.EmployeeStatuses {
		st.ByEmployeeStatus[string(s)] = 0
	}

	var rows []countRow
	if err := base().Select("status AS label, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, apperror.Internal("Failed to load statistics!", err)
	}
	for _, r := range rows {
		st.ByStatus[r.Label] = r.Count
		st.Total += r.Count
	}

	// terminated employees leave status=approved, so count them alongside it
	rows = nil
	if err := base().Where("status IN ?", []models.ApplicationStatus{models.StatusApproved, models.StatusTerminated}).
		Select("employee_status AS label, COUNT(*) AS count").Group("employee_status").Scan(&rows).Error; err != nil {
		return nil, apperror.Internal("Failed to load statistics!", err)
	}
	for _, r := range rows {
		st.ByEmployeeStatus[r.Label] = r.Count
	}

	clock := now.With(e.now())
	windows := []struct {
		column string
		since  interface{}
		dst    *int64
	}{
		{"submitted_at", clock.BeginningOfDay(), &st.SubmittedToday},
		{"submitted_at", clock.BeginningOfWeek(), &st.SubmittedWeek},
		{"submitted_at", clock.BeginningOfMonth(), &st.SubmittedMonth},
		{"approval_date", clock.BeginningOfMonth(), &st.ApprovedMonth},
	}
	for _, w := range windows {
		if err := base().Where(w.column+" >= ?", w.since).Count(w.dst).Error; err != nil {
			return nil, apperror.Internal("Failed to load statistics!", err)
		}
	}
	return st, nil
}
