// Package dispatch delivers lifecycle events from the outbox table: emails, LMS provisioning and
// the optional event stream. Failures here never touch the transition that produced the event.
package dispatch

import (
	"context"
	"log"
	"sync"
	"time"

	"hrms/metrics"
	"hrms/models"
	"hrms/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultMaxAttempts = 5
	batchSize          = 50
	callTimeout        = 15 * time.Second
)

type Options struct {
	Mailer      utils.Mailer
	LMS         utils.LMS
	Publisher   Publisher
	MaxAttempts int
	Now         func() time.Time
}

// Dispatcher drains undispatched LifecycleEvent rows.
type Dispatcher struct {
	db          *gorm.DB
	mailer      utils.Mailer
	lms         utils.LMS
	publisher   Publisher
	maxAttempts int
	now         func() time.Time

	kick chan struct{}
	mu   sync.Mutex // one drain at a time
}

func New(db *gorm.DB, opts Options) *Dispatcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		db:          db,
		mailer:      opts.Mailer,
		lms:         opts.LMS,
		publisher:   opts.Publisher,
		maxAttempts: opts.MaxAttempts,
		now:         opts.Now,
		kick:        make(chan struct{}, 1),
	}
}

// Kick asks the run loop for a drain without blocking the caller.
func (d *Dispatcher) Kick() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// Run drains on every kick until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Println("[DISPATCH] dispatcher started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[DISPATCH] dispatcher stopped")
			return
		case <-d.kick:
			if _, err := d.Drain(ctx); err != nil {
				log.Printf("[DISPATCH] drain failed: %v", err)
			}
		}
	}
}

// Drain handles pending events oldest first and returns how many were delivered.
func (d *Dispatcher) Drain(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delivered := 0
	var lastID uint
	for {
		var batch []models.LifecycleEvent
		if err := d.db.WithContext(ctx).
			Where("dispatched_at IS NULL AND attempts < ? AND id > ?", d.maxAttempts, lastID).
			Order("id ASC").
			Limit(batchSize).
			Find(&batch).Error; err != nil {
			return delivered, err
		}
		if len(batch) == 0 {
			return delivered, nil
		}

		for i := range batch {
			ev := &batch[i]
			lastID = ev.ID
			if d.deliver(ctx, ev) {
				delivered++
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev *models.LifecycleEvent) bool {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	err := d.handle(callCtx, ev)
	if err == nil && d.publisher != nil {
		err = d.publisher.Publish(callCtx, envelopeOf(ev))
	}

	updates := map[string]interface{}{"attempts": ev.Attempts + 1}
	if err != nil {
		updates["last_error"] = err.Error()
		if ev.Attempts+1 >= d.maxAttempts {
			log.Printf("[DISPATCH] giving up on %s event %s after %d attempts: %v", ev.Type, ev.EventID, ev.Attempts+1, err)
		} else {
			log.Printf("[DISPATCH] %s event %s failed (attempt %d): %v", ev.Type, ev.EventID, ev.Attempts+1, err)
		}
	} else {
		updates["dispatched_at"] = d.now()
		updates["last_error"] = ""
		if ev.Sensitive {
			// raw approval links are not kept once sent
			updates["payload"] = datatypes.JSONMap(redacted(ev.Payload))
		}
	}

	if uerr := d.db.WithContext(ctx).Model(&models.LifecycleEvent{}).Where("id = ?", ev.ID).Updates(updates).Error; uerr != nil {
		log.Printf("[DISPATCH] failed to record outcome of event %s: %v", ev.EventID, uerr)
	}
	metrics.ObserveDispatch(ev.Type, err == nil)
	return err == nil
}

func envelopeOf(ev *models.LifecycleEvent) Envelope {
	env := Envelope{
		EventID:      ev.EventID,
		Type:         ev.Type,
		OnboardingID: ev.OnboardingID,
		ActorID:      ev.ActorID,
		ActorRole:    ev.ActorRole,
		OccurredAt:   ev.CreatedAt,
	}
	if !ev.Sensitive {
		env.Payload = ev.Payload
	} else {
		env.Payload = redacted(ev.Payload)
	}
	return env
}

func redacted(p map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		if k == "approvalLink" {
			continue
		}
		out[k] = v
	}
	return out
}
