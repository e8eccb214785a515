package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// IdentityLink is a hosted Aadhaar consent flow.
type IdentityLink struct {
	ClientID string `json:"clientId"`
	URL      string `json:"url"`
}

// IdentityStatus is the outcome of a hosted flow.
type IdentityStatus struct {
	ClientID      string                 `json:"clientId"`
	Status        string                 `json:"status"` // pending, verified, failed
	AadhaarNumber string                 `json:"aadhaarNumber,omitempty"`
	Profile       map[string]interface{} `json:"profile,omitempty"`
}

func (s *IdentityStatus) Verified() bool {
	return s != nil && strings.EqualFold(s.Status, "verified")
}

// PANResult is the tax registry answer for one PAN.
type PANResult struct {
	PanNumber  string `json:"panNumber"`
	Valid      bool   `json:"valid"`
	NameOnCard string `json:"nameOnCard"`
}

// IdentityProvider verifies identity documents.
type IdentityProvider interface {
	InitiateLink(ctx context.Context, redirectURL string) (*IdentityLink, error)
	CheckStatus(ctx context.Context, clientID string) (*IdentityStatus, error)
	VerifyPAN(ctx context.Context, pan string) (*PANResult, error)
}

type IdentityClient struct {
	client *resty.Client
}

func NewIdentityClient(baseURL, apiKey, apiSecret, version string) *IdentityClient {
	return &IdentityClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeaders(map[string]string{
				"x-api-key":     apiKey,
				"x-api-secret":  apiSecret,
				"x-api-version": version,
				"Content-Type":  "application/json",
			}).
			SetTimeout(20 * time.Second),
	}
}

type providerEnvelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (i *IdentityClient) InitiateLink(ctx context.Context, redirectURL string) (*IdentityLink, error) {
	var out providerEnvelope[IdentityLink]
	resp, err := i.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"redirectUrl": redirectURL}).
		SetResult(&out).
		Post("/aadhaar/link")
	if err := checkProvider(resp, err, out.Success, out.Message); err != nil {
		return nil, fmt.Errorf("identity initiate link: %w", err)
	}
	return &out.Data, nil
}

func (i *IdentityClient) CheckStatus(ctx context.Context, clientID string) (*IdentityStatus, error) {
	var out providerEnvelope[IdentityStatus]
	resp, err := i.client.R().
		SetContext(ctx).
		SetPathParam("clientId", clientID).
		SetResult(&out).
		Get("/aadhaar/status/{clientId}")
	if err := checkProvider(resp, err, out.Success, out.Message); err != nil {
		return nil, fmt.Errorf("identity status: %w", err)
	}
	if out.Data.ClientID == "" {
		out.Data.ClientID = clientID
	}
	return &out.Data, nil
}

func (i *IdentityClient) VerifyPAN(ctx context.Context, pan string) (*PANResult, error) {
	var out providerEnvelope[PANResult]
	resp, err := i.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"panNumber": pan}).
		SetResult(&out).
		Post("/pan/verify")
	if err := checkProvider(resp, err, out.Success, out.Message); err != nil {
		return nil, fmt.Errorf("identity verify pan: %w", err)
	}
	return &out.Data, nil
}

func checkProvider(resp *resty.Response, err error, success bool, message string) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}
	if !success {
		if message == "" {
			message = "provider reported failure"
		}
		return fmt.Errorf("%s", message)
	}
	return nil
}
