package verification

import (
	"context"
	"errors"
	"time"

	"hrms/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SendWindow enforces one OTP send per key per window. Acquire returns ok=false and the
// remaining wait when the key is still cooling down.
type SendWindow interface {
	Acquire(ctx context.Context, key string, window time.Duration) (ok bool, retryAfter time.Duration, err error)
	Release(ctx context.Context, key string) error
}

// dbWindow checks the creation time of the live OTP record. It is enough for a single instance.
type dbWindow struct {
	db  *gorm.DB
	now func() time.Time
}

// DBWindow derives the window from the OTP table itself.
func DBWindow(db *gorm.DB, now func() time.Time) SendWindow {
	return &dbWindow{db: db, now: now}
}

func (w *dbWindow) Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	contact, channel := splitKey(key)
	var last models.OTP
	err := w.db.WithContext(ctx).
		Where("contact = ? AND channel = ?", contact, channel).
		Order("created_at DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if wait := last.CreatedAt.Add(window).Sub(w.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Release is a no-op; deleting the OTP record frees the window.
func (w *dbWindow) Release(ctx context.Context, key string) error {
	return nil
}

type redisWindow struct {
	client redis.UniversalClient
	prefix string
}

// RedisWindow shares the window across instances with SET NX EX.
func RedisWindow(client redis.UniversalClient) SendWindow {
	return &redisWindow{client: client, prefix: "otp:window:"}
}

func (w *redisWindow) Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	ok, err := w.client.SetNX(ctx, w.prefix+key, "1", window).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}
	ttl, err := w.client.TTL(ctx, w.prefix+key).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl < 0 {
		ttl = window
	}
	return false, ttl, nil
}

func (w *redisWindow) Release(ctx context.Context, key string) error {
	return w.client.Del(ctx, w.prefix+key).Err()
}

func windowKey(contact, channel string) string {
	return channel + ":" + contact
}

func splitKey(key string) (contact, channel string) {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[i+1:], key[:i]
		}
	}
	return key, ""
}
