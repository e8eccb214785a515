// Package exports produces CSV/JSON reports of onboarding records and the token-gated public
// links that serve a frozen filter.
package exports

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"hrms/apperror"
	"hrms/models"
	"hrms/services/lifecycle"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxRows caps one export.
const MaxRows = 10000

type Options struct {
	Store         TokenStore
	TTL           time.Duration
	PublicBaseURL string
	Now           func() time.Time
}

type Service struct {
	db      *gorm.DB
	store   TokenStore
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func New(db *gorm.DB, opts Options) *Service {
	if opts.Store == nil {
		opts.Store = GormStore(db)
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{db: db, store: opts.Store, ttl: opts.TTL, baseURL: opts.PublicBaseURL, now: opts.Now}
}

// Link is a public export URL.
type Link struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssueLink freezes filter, narrowed to actor's scope, under a fresh token.
func (s *Service) IssueLink(ctx context.Context, actor *models.Principal, filter models.ExportFilter) (*Link, error) {
	if _, err := lifecycle.ApplyFilter(s.db, filter); err != nil {
		return nil, err
	}
	if err := CheckFields(filter.Fields); err != nil {
		return nil, err
	}
	filter, err := s.narrow(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, apperror.Internal("Failed to generate export token!", err)
	}
	now := s.now()
	tok := models.ExportToken{
		Token:     hex.EncodeToString(buf),
		Filter:    jsonFilter(filter),
		IssuedBy:  actor.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.Save(ctx, tok); err != nil {
		return nil, apperror.Internal("Failed to store export token!", err)
	}
	log.Printf("[EXPORT] link issued by %s %d, expires %s", actor.Role, actor.ID, tok.ExpiresAt.Format(time.RFC3339))

	return &Link{
		Token:     tok.Token,
		URL:       fmt.Sprintf("%s/public/export/%s", s.baseURL, tok.Token),
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

// Resolve returns the frozen filter behind token.
func (s *Service) Resolve(ctx context.Context, token string) (*models.ExportFilter, error) {
	tok, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, apperror.Internal("Failed to load export token!", err)
	}
	if tok == nil {
		return nil, apperror.NotFound("Export link not found!")
	}
	if !s.now().Before(tok.ExpiresAt) {
		return nil, apperror.Expired("Export link has expired!")
	}
	f := tok.Filter.Data()
	return &f, nil
}

// Rows loads the records for filter. A nil actor means the filter was already narrowed when
// it was frozen.
func (s *Service) Rows(ctx context.Context, actor *models.Principal, filter models.ExportFilter) ([]models.Onboarding, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Onboarding{})
	if actor != nil {
		scope, err := lifecycle.ScopeFor(db, actor)
		if err != nil {
			return nil, err
		}
		q = scope.Apply(q, "onboardings.outlet_id")
	}
	q, err := lifecycle.ApplyFilter(q, filter)
	if err != nil {
		return nil, err
	}

	rows := []models.Onboarding{}
	if err := q.
		Preload("Outlet", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Role", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("onboardings.id ASC").
		Limit(MaxRows).
		Find(&rows).Error; err != nil {
		return nil, apperror.Internal("Failed to load export rows!", err)
	}
	return rows, nil
}

// Sweep drops expired tokens from the store.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.Sweep(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[EXPORT] swept %d expired export tokens", n)
	}
	return n, nil
}

func (s *Service) narrow(ctx context.Context, actor *models.Principal, f models.ExportFilter) (models.ExportFilter, error) {
	scope, err := lifecycle.ScopeFor(s.db.WithContext(ctx), actor)
	if err != nil {
		return f, err
	}
	if scope.All {
		return f, nil
	}
	if len(f.OutletIDs) == 0 {
		f.OutletIDs = scope.OutletIDs
	} else {
		var kept []uint
		for _, id := range f.OutletIDs {
			id := id
			if scope.Allows(&id) {
				kept = append(kept, id)
			}
		}
		f.OutletIDs = kept
	}
	if len(f.OutletIDs) == 0 {
		return f, apperror.Forbidden("No outlets in scope to export!")
	}
	return f, nil
}

func jsonFilter(f models.ExportFilter) datatypes.JSONType[models.ExportFilter] {
	return datatypes.NewJSONType(f)
}
