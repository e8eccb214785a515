package utils

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// GenerateOTP generates a 6-digit OTP
func GenerateOTP() (string, error) {
	otp := make([]byte, 6)
	ten := big.NewInt(10)
	for i := range otp {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		otp[i] = byte('0' + n.Int64())
	}
	return string(otp), nil
}

// MaskAadhaar hides all but the last four digits
func MaskAadhaar(number string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if len(digits) < 4 {
		return ""
	}
	return "XXXX-XXXX-" + digits[len(digits)-4:]
}

// SMSGateway delivers text messages to a phone number.
type SMSGateway interface {
	SendOTP(ctx context.Context, mobile, otp string) error
}

// SMSClient talks to a DLT-style bulk SMS HTTP API.
type SMSClient struct {
	client   *resty.Client
	apiKey   string
	senderID string
}

func NewSMSClient(baseURL, apiKey, senderID string) *SMSClient {
	return &SMSClient{
		client:   resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
		apiKey:   apiKey,
		senderID: senderID,
	}
}

func (s *SMSClient) SendOTP(ctx context.Context, mobile, otp string) error {
	if s.apiKey == "" {
		log.Printf("[SMS] gateway not configured, OTP for %s not sent", mobile)
		return fmt.Errorf("sms gateway not configured")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("authorization", s.apiKey).
		SetQueryParams(map[string]string{
			"route":            "dlt",
			"sender_id":        s.senderID,
			"variables_values": fmt.Sprintf("%s|5", otp),
			"flash":            "0",
			"numbers":          mobile,
		}).
		Get("/dev/bulkV2")
	if err != nil {
		log.Printf("[SMS] Error while sending OTP: %v", err)
		return err
	}
	if resp.IsError() {
		log.Printf("[SMS] Failed to send OTP, response code: %d", resp.StatusCode())
		return fmt.Errorf("failed to send OTP, code: %d", resp.StatusCode())
	}

	log.Println("[SMS] OTP sent successfully to", mobile)
	return nil
}
