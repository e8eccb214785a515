package exports

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hrms/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// TokenStore keeps export tokens. Get returns nil, nil for an unknown token.
type TokenStore interface {
	Save(ctx context.Context, tok models.ExportToken) error
	Get(ctx context.Context, token string) (*models.ExportToken, error)
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

type gormStore struct {
	db *gorm.DB
}

// GormStore keeps tokens in the export_tokens table.
func GormStore(db *gorm.DB) TokenStore {
	return &gormStore{db: db}
}

func (s *gormStore) Save(ctx context.Context, tok models.ExportToken) error {
	return s.db.WithContext(ctx).Create(&tok).Error
}

func (s *gormStore) Get(ctx context.Context, token string) (*models.ExportToken, error) {
	var tok models.ExportToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *gormStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.ExportToken{})
	return res.RowsAffected, res.Error
}

type redisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStore keeps tokens as keys that expire on their own.
func RedisStore(client redis.UniversalClient) TokenStore {
	return &redisStore{client: client, prefix: "export:token:"}
}

type redisToken struct {
	Filter    models.ExportFilter `json:"filter"`
	IssuedBy  uint                `json:"issuedBy"`
	ExpiresAt time.Time           `json:"expiresAt"`
	CreatedAt time.Time           `json:"createdAt"`
}

func (s *redisStore) Save(ctx context.Context, tok models.ExportToken) error {
	data, err := json.Marshal(redisToken{
		Filter:    tok.Filter.Data(),
		IssuedBy:  tok.IssuedBy,
		ExpiresAt: tok.ExpiresAt,
		CreatedAt: tok.CreatedAt,
	})
	if err != nil {
		return err
	}
	ttl := time.Until(tok.ExpiresAt)
	if ttl <= 0 {
		return errors.New("export token already expired")
	}
	return s.client.Set(ctx, s.prefix+tok.Token, data, ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, token string) (*models.ExportToken, error) {
	data, err := s.client.Get(ctx, s.prefix+token).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rt redisToken
	if err := json.Unmarshal(data, &rt); err != nil {
		return nil, err
	}
	tok := &models.ExportToken{
		Token:     token,
		IssuedBy:  rt.IssuedBy,
		ExpiresAt: rt.ExpiresAt,
		CreatedAt: rt.CreatedAt,
	}
	tok.Filter = jsonFilter(rt.Filter)
	return tok, nil
}

// Sweep is a no-op; redis expires the keys.
func (s *redisStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
