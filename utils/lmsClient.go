package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// LMSAccount is what the learning platform needs to create a trainee.
type LMSAccount struct {
	EmployeeKey string `json:"employeeId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	OutletCode  string `json:"outletCode"`
}

// LMS provisions and disables training accounts.
type LMS interface {
	CreateAccount(ctx context.Context, acct LMSAccount) (string, error)
	DeactivateAccount(ctx context.Context, lmsUserID string) error
}

type LMSClient struct {
	client *resty.Client
}

func NewLMSClient(baseURL, apiKey string) *LMSClient {
	return &LMSClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("x-api-key", apiKey).
			SetHeader("Content-Type", "application/json").
			SetTimeout(15 * time.Second),
	}
}

type lmsCreateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		UserID string `json:"userId"`
	} `json:"data"`
}

func (l *LMSClient) CreateAccount(ctx context.Context, acct LMSAccount) (string, error) {
	var out lmsCreateResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetBody(acct).
		SetResult(&out).
		Post("/users")
	if err != nil {
		return "", fmt.Errorf("lms create account: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("lms create account: status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Data.UserID == "" {
		return "", fmt.Errorf("lms create account: no user id in response")
	}
	return out.Data.UserID, nil
}

func (l *LMSClient) DeactivateAccount(ctx context.Context, lmsUserID string) error {
	resp, err := l.client.R().
		SetContext(ctx).
		SetPathParam("id", lmsUserID).
		Post("/users/{id}/deactivate")
	if err != nil {
		return fmt.Errorf("lms deactivate account: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("lms deactivate account: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
