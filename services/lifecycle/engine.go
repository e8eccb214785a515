// Package lifecycle owns the onboarding application state machine: drafts, submission,
// approval, the post-approval employee states and employment-history archival.
package lifecycle

import (
	"context"
	"errors"
	"log"
	"time"

	"hrms/apperror"
	"hrms/metrics"
	"hrms/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier is told after every committed transition that new outbox events exist.
type Notifier interface {
	Kick()
}

// Options configures an Engine.
type Options struct {
	ApprovalTokenTTL time.Duration
	PublicBaseURL    string
	Now              func() time.Time
	Events           Notifier
}

// Engine runs lifecycle operations against the database.
type Engine struct {
	db       *gorm.DB
	now      func() time.Time
	tokenTTL time.Duration
	baseURL  string
	events   Notifier
}

// New builds an Engine.
func New(db *gorm.DB, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ApprovalTokenTTL <= 0 {
		opts.ApprovalTokenTTL = 7 * 24 * time.Hour
	}
	return &Engine{
		db:       db,
		now:      opts.Now,
		tokenTTL: opts.ApprovalTokenTTL,
		baseURL:  opts.PublicBaseURL,
		events:   opts.Events,
	}
}

// SetNotifier wires the dispatcher once it exists.
func (e *Engine) SetNotifier(n Notifier) {
	e.events = n
}

type pendingEvent struct {
	eventType string
	payload   map[string]interface{}
	sensitive bool
}

// mutation is what a guard asks the engine to persist.
type mutation struct {
	status   models.ApplicationStatus
	employee models.EmployeeStatus
	fields   map[string]interface{}
	events   []pendingEvent
}

func (m *mutation) set(column string, value interface{}) {
	if m.fields == nil {
		m.fields = map[string]interface{}{}
	}
	m.fields[column] = value
}

func (m *mutation) emit(eventType string, payload map[string]interface{}) {
	m.events = append(m.events, pendingEvent{eventType: eventType, payload: payload})
}

type guardFunc func(tx *gorm.DB, rec *models.Onboarding) (*mutation, error)

type transitionRequest struct {
	id    uint
	event Event
	actor *models.Principal
	roles []string
	guard guardFunc
	// eventActor names the actor recorded on outbox events when there is no session actor.
	eventActor func() *models.Principal
}

// transition loads the record, authorizes the actor against the freshly resolved scope, checks
// the state machine, runs the guard and persists with a conditional update, all in one
// transaction. Outbox events are written in the same transaction.
func (e *Engine) transition(ctx context.Context, req transitionRequest) (*models.Onboarding, error) {
	var out models.Onboarding

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := loadForUpdate(tx, req.id)
		if err != nil {
			return err
		}

		if req.actor != nil {
			if err := authorize(tx, req.actor, req.roles, rec.OutletID); err != nil {
				return err
			}
		}

		if req.event != "" {
			if err := checkFrom(req.event, rec); err != nil {
				return err
			}
		}

		m, err := req.guard(tx, rec)
		if err != nil {
			return err
		}

		if req.event != "" {
			if err := checkTarget(req.event, rec, m.status, m.employee); err != nil {
				return err
			}
		}

		recorded := req.actor
		if recorded == nil && req.eventActor != nil {
			recorded = req.eventActor()
		}
		if err := e.persist(tx, rec, m, recorded); err != nil {
			return err
		}

		return preloaded(tx).First(&out, rec.ID).Error
	})
	if req.event != "" {
		outcome := "ok"
		if err != nil {
			outcome = string(apperror.KindOf(err))
		}
		metrics.ObserveTransition(string(req.event), outcome)
	}
	if err != nil {
		return nil, err
	}

	e.Kick()
	return &out, nil
}

// Kick wakes the notifier, if any.
func (e *Engine) Kick() {
	if e.events != nil {
		e.events.Kick()
	}
}

// persist writes m only if the record still has the status pair that was read.
func (e *Engine) persist(tx *gorm.DB, rec *models.Onboarding, m *mutation, actor *models.Principal) error {
	updates := map[string]interface{}{}
	for k, v := range m.fields {
		updates[k] = v
	}
	if m.status != "" {
		updates["status"] = m.status
	}
	if m.employee != "" {
		updates["employee_status"] = m.employee
	}
	if len(updates) == 0 {
		return nil
	}

	res := tx.Model(&models.Onboarding{}).
		Where("id = ? AND status = ? AND employee_status = ?", rec.ID, rec.Status, rec.EmployeeStatus).
		Updates(updates)
	if res.Error != nil {
		return apperror.Internal("Failed to update application!", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict("Application was changed by another request, please retry!")
	}

	for _, ev := range m.events {
		if err := writeEvent(tx, rec.ID, actor, ev); err != nil {
			return err
		}
	}
	return nil
}

func writeEvent(tx *gorm.DB, onboardingID uint, actor *models.Principal, ev pendingEvent) error {
	row := models.LifecycleEvent{
		EventID:      uuid.NewString(),
		Type:         ev.eventType,
		OnboardingID: onboardingID,
		Payload:      datatypes.JSONMap(ev.payload),
		Sensitive:    ev.sensitive,
	}
	if actor != nil {
		id := actor.ID
		row.ActorID = &id
		row.ActorRole = actor.Role
	}
	if err := tx.Create(&row).Error; err != nil {
		return apperror.Internal("Failed to record lifecycle event!", err)
	}
	return nil
}

func preloaded(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Outlet", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Role", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

func loadForUpdate(tx *gorm.DB, id uint) (*models.Onboarding, error) {
	var rec models.Onboarding
	if err := preloaded(tx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Application not found!")
		}
		return nil, apperror.Internal("Failed to load application!", err)
	}
	return &rec, nil
}

func authorize(tx *gorm.DB, actor *models.Principal, roles []string, outletID *uint) error {
	if !actor.HasRole(roles...) {
		return apperror.Forbidden("You do not have permission to perform this action!")
	}
	scope, err := ScopeFor(tx, actor)
	if err != nil {
		return err
	}
	if !scope.Allows(outletID) {
		log.Printf("[LIFECYCLE] %s %d denied for outlet %v", actor.Role, actor.ID, outletID)
		return apperror.Forbidden("This application is outside your assigned outlets!")
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
