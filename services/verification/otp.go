// Package verification issues and checks one-time passwords and wraps the identity-document
// provider.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"hrms/apperror"
	"hrms/models"
	"hrms/utils"

	"gorm.io/gorm"
)

const (
	OTPExpiry      = 5 * time.Minute
	OTPSendWindow  = 60 * time.Second
	OTPMaxAttempts = 3
)

// OTPGateway issues and verifies codes for (contact, channel) keys.
type OTPGateway struct {
	db       *gorm.DB
	window   SendWindow
	sms      utils.SMSGateway
	mailer   utils.Mailer
	now      func() time.Time
	generate func() (string, error)
}

type OTPOptions struct {
	Window   SendWindow
	SMS      utils.SMSGateway
	Mailer   utils.Mailer
	Now      func() time.Time
	Generate func() (string, error)
}

func NewOTPGateway(db *gorm.DB, opts OTPOptions) *OTPGateway {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Generate == nil {
		opts.Generate = utils.GenerateOTP
	}
	if opts.Window == nil {
		opts.Window = DBWindow(db, opts.Now)
	}
	return &OTPGateway{
		db:       db,
		window:   opts.Window,
		sms:      opts.SMS,
		mailer:   opts.Mailer,
		now:      opts.Now,
		generate: opts.Generate,
	}
}

// Issued tells the caller how long the code stays valid.
type Issued struct {
	ExpiresAt time.Time `json:"expiresAt"`
	ExpiresIn int       `json:"expiresIn"`
}

// NormalizeContact lowercases emails and strips spaces.
func NormalizeContact(contact, channel string) string {
	contact = strings.TrimSpace(contact)
	if channel == models.ChannelEmail {
		return strings.ToLower(contact)
	}
	return strings.ReplaceAll(contact, " ", "")
}

// Send issues a new code, replacing any earlier one for the key, and delivers it.
func (g *OTPGateway) Send(ctx context.Context, contact, channel string) (*Issued, error) {
	if channel != models.ChannelPhone && channel != models.ChannelEmail {
		return nil, apperror.Validation("Unknown OTP channel!")
	}
	contact = NormalizeContact(contact, channel)
	if contact == "" {
		return nil, apperror.Validation("Contact is required!")
	}
	key := windowKey(contact, channel)

	ok, wait, err := g.window.Acquire(ctx, key, OTPSendWindow)
	if err != nil {
		return nil, apperror.Internal("Failed to check OTP window!", err)
	}
	if !ok {
		secs := int((wait + time.Second - 1) / time.Second)
		return nil, apperror.RateLimited(fmt.Sprintf("Please wait %d seconds before requesting another OTP!", secs), secs)
	}

	code, err := g.generate()
	if err != nil {
		_ = g.window.Release(ctx, key)
		return nil, apperror.Internal("Failed to generate OTP!", err)
	}

	now := g.now()
	record := models.OTP{Contact: contact, Channel: channel, Code: code, ExpiresAt: now.Add(OTPExpiry)}
	record.CreatedAt = now
	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("contact = ? AND channel = ?", contact, channel).Delete(&models.OTP{}).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		_ = g.window.Release(ctx, key)
		return nil, apperror.Internal("Failed to store OTP!", err)
	}

	if err := g.deliver(ctx, contact, channel, code); err != nil {
		g.db.WithContext(ctx).Unscoped().Delete(&record)
		_ = g.window.Release(ctx, key)
		return nil, apperror.Upstream("Failed to send OTP, please try again!", err)
	}

	return &Issued{ExpiresAt: record.ExpiresAt, ExpiresIn: int(OTPExpiry / time.Second)}, nil
}

func (g *OTPGateway) deliver(ctx context.Context, contact, channel, code string) error {
	switch channel {
	case models.ChannelPhone:
		if g.sms == nil {
			return errors.New("sms gateway not configured")
		}
		return g.sms.SendOTP(ctx, contact, code)
	default:
		if g.mailer == nil {
			return errors.New("mailer not configured")
		}
		return g.mailer.Send([]string{contact}, utils.OTPEmail(code))
	}
}

// Verify checks code against the live record for the key. A correct code consumes the record;
// the third wrong guess deletes it.
func (g *OTPGateway) Verify(ctx context.Context, contact, channel, code string) error {
	contact = NormalizeContact(contact, channel)
	code = strings.TrimSpace(code)

	// a wrong guess is reported after commit so the attempt counter sticks
	var wrong error
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.OTP
		err := tx.Where("contact = ? AND channel = ? AND verified = ?", contact, channel, false).
			Order("created_at DESC").
			First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("OTP not found, please request a new one!")
		}
		if err != nil {
			return apperror.Internal("Failed to load OTP!", err)
		}

		if !g.now().Before(record.ExpiresAt) {
			return apperror.Expired("OTP has expired, please request a new one!")
		}

		if record.Code == code {
			return tx.Model(&record).Update("verified", true).Error
		}

		attempts := record.Attempts + 1
		remaining := OTPMaxAttempts - attempts
		if remaining <= 0 {
			err = tx.Unscoped().Delete(&record).Error
			wrong = apperror.InvalidCode("Too many wrong attempts, please request a new OTP!", 0)
		} else {
			err = tx.Model(&record).Update("attempts", attempts).Error
			wrong = apperror.InvalidCode(fmt.Sprintf("Invalid OTP! %d attempts remaining.", remaining), remaining)
		}
		if err != nil {
			return apperror.Internal("Failed to update OTP!", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return wrong
}

// Sweep removes expired and consumed codes.
func (g *OTPGateway) Sweep(ctx context.Context) (int64, error) {
	res := g.db.WithContext(ctx).Unscoped().
		Where("expires_at < ? OR verified = ?", g.now(), true).
		Delete(&models.OTP{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("[OTP] swept %d expired codes", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
