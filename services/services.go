// Package services wires the lifecycle engine and its collaborators into one container the
// HTTP handlers share.
package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"hrms/config"
	"hrms/middleware"
	"hrms/models"
	"hrms/services/directory"
	"hrms/services/dispatch"
	"hrms/services/exports"
	"hrms/services/lifecycle"
	"hrms/services/verification"
	"hrms/utils"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Container holds the long-lived services.
type Container struct {
	DB         *gorm.DB
	Lifecycle  *lifecycle.Engine
	OTP        *verification.OTPGateway
	Identity   *verification.Identity
	Exports    *exports.Service
	Directory  *directory.Service
	Dispatcher *dispatch.Dispatcher
	Documents  *utils.DocumentStore

	redis     redis.UniversalClient
	publisher dispatch.Publisher
}

// App is the container used by the controllers.
var App *Container

// Deps are the outbound collaborators. Nil fields are built from config.
type Deps struct {
	Mailer    utils.Mailer
	SMS       utils.SMSGateway
	LMS       utils.LMS
	Provider  utils.IdentityProvider
	Publisher dispatch.Publisher
	Redis     redis.UniversalClient
	Now       func() time.Time
}

// Init builds App from config.AppConfig.
func Init(db *gorm.DB) {
	App = Build(db, config.AppConfig, Deps{})
}

// Build assembles a container. Redis and Kafka are used only when configured.
func Build(db *gorm.DB, cfg *config.Config, deps Deps) *Container {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Mailer == nil {
		deps.Mailer = utils.NewMailer(cfg)
	}
	if deps.SMS == nil && cfg.SMSApiURL != "" {
		deps.SMS = utils.NewSMSClient(cfg.SMSApiURL, cfg.SMSApiKey, cfg.SMSSenderID)
	}
	if deps.LMS == nil && cfg.LMSApiURL != "" {
		deps.LMS = utils.NewLMSClient(cfg.LMSApiURL, cfg.LMSApiKey)
	}
	if deps.Provider == nil {
		deps.Provider = utils.NewIdentityClient(cfg.IdentityApiURL, cfg.IdentityApiKey, cfg.IdentitySecretKey, cfg.IdentityApiVersion)
	}
	if deps.Redis == nil && cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("[SERVICES] invalid REDIS_URL, falling back to the database: %v", err)
		} else {
			deps.Redis = redis.NewClient(opts)
			log.Println("[SERVICES] using redis for OTP windows and export tokens")
		}
	}
	if deps.Publisher == nil && len(cfg.KafkaBrokers) > 0 {
		deps.Publisher = dispatch.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Printf("[SERVICES] publishing lifecycle events to kafka topic %s", cfg.KafkaTopic)
	}

	c := &Container{DB: db, redis: deps.Redis, publisher: deps.Publisher}

	c.Dispatcher = dispatch.New(db, dispatch.Options{
		Mailer:    deps.Mailer,
		LMS:       deps.LMS,
		Publisher: deps.Publisher,
		Now:       deps.Now,
	})
	c.Lifecycle = lifecycle.New(db, lifecycle.Options{
		ApprovalTokenTTL: cfg.ApprovalTokenTTL,
		PublicBaseURL:    cfg.PublicBaseURL,
		Now:              deps.Now,
		Events:           c.Dispatcher,
	})

	otpOpts := verification.OTPOptions{SMS: deps.SMS, Mailer: deps.Mailer, Now: deps.Now}
	exportOpts := exports.Options{TTL: cfg.ExportTokenTTL, PublicBaseURL: cfg.PublicBaseURL, Now: deps.Now}
	if deps.Redis != nil {
		otpOpts.Window = verification.RedisWindow(deps.Redis)
		exportOpts.Store = exports.RedisStore(deps.Redis)
	}
	c.OTP = verification.NewOTPGateway(db, otpOpts)
	c.Identity = verification.NewIdentity(deps.Provider, c.Lifecycle)
	c.Exports = exports.New(db, exportOpts)
	c.Directory = directory.New(db, c.Lifecycle, cfg.SaltRound)
	c.Documents = utils.NewDocumentStore(cfg.UploadDir, int64(cfg.MaxUploadBytes))
	return c
}

// Jobs are the periodic sweeps main schedules.
func (c *Container) Jobs() []dispatch.Job {
	return []dispatch.Job{
		c.Dispatcher.RetryJob(),
		{Name: "otp-sweep", Spec: "@every 10m", Run: func(ctx context.Context) error {
			_, err := c.OTP.Sweep(ctx)
			return err
		}},
		{Name: "export-token-sweep", Spec: "@every 1h", Run: func(ctx context.Context) error {
			_, err := c.Exports.Sweep(ctx)
			return err
		}},
		{Name: "approval-token-sweep", Spec: "@every 1h", Run: func(ctx context.Context) error {
			_, err := c.Lifecycle.ClearExpiredTokens(ctx)
			return err
		}},
	}
}

// Limiter returns a redis backed request limiter, or nil when redis is not configured.
func (c *Container) Limiter(rate int, period time.Duration) middleware.Limiter {
	if c.redis == nil {
		return nil
	}
	return middleware.RedisLimiter(c.redis, rate, period)
}

// Close releases the redis and kafka connections.
func (c *Container) Close() {
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			log.Printf("[SERVICES] closing publisher: %v", err)
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Printf("[SERVICES] closing redis: %v", err)
		}
	}
}

// EnsureSuperAdmin creates the bootstrap super admin when none exists.
func EnsureSuperAdmin(db *gorm.DB, email, password string, cost int) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	var count int64
	if err := db.Model(&models.StaffAccount{}).Where("role = ?", models.RoleSuperAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return err
	}
	admin := models.StaffAccount{Name: "Super Admin", Email: email, Password: string(hash), Role: models.RoleSuperAdmin, IsActive: true}
	if err := db.Create(&admin).Error; err != nil {
		return errors.New("create super admin: " + err.Error())
	}
	log.Printf("[BOOTSTRAP] super admin %s created", email)
	return nil
}
