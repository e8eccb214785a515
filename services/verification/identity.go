package verification

import (
	"context"
	"log"
	"regexp"
	"strings"

	"hrms/apperror"
	"hrms/models"
	"hrms/services/lifecycle"
	"hrms/utils"
)

var panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// Recorder stores a started flow and a successful verification on a draft.
type Recorder interface {
	BindAadhaarClient(ctx context.Context, id uint, clientID string) (*models.Onboarding, error)
	RecordVerification(ctx context.Context, id uint, v lifecycle.VerificationResult) (*models.Onboarding, error)
}

// Identity runs document checks against the provider. The provider's answer is the gate, so
// its failures are returned to the caller.
type Identity struct {
	provider utils.IdentityProvider
	recorder Recorder
}

func NewIdentity(provider utils.IdentityProvider, recorder Recorder) *Identity {
	return &Identity{provider: provider, recorder: recorder}
}

// InitiateLink starts a provider flow and binds its client id to the draft, so only that
// flow can complete the draft's Aadhaar check.
func (i *Identity) InitiateLink(ctx context.Context, onboardingID uint, redirectURL string) (*utils.IdentityLink, error) {
	if strings.TrimSpace(redirectURL) == "" {
		return nil, apperror.ValidationFields(map[string]string{"redirectUrl": "Redirect URL is required!"})
	}
	link, err := i.provider.InitiateLink(ctx, redirectURL)
	if err != nil {
		log.Printf("[IDENTITY] initiate link failed: %v", err)
		return nil, apperror.Upstream("Identity provider is unavailable, please try again!", err)
	}
	if _, err := i.recorder.BindAadhaarClient(ctx, onboardingID, link.ClientID); err != nil {
		return nil, err
	}
	return link, nil
}

// CompleteAadhaar fetches the flow outcome and, when verified, marks the draft.
func (i *Identity) CompleteAadhaar(ctx context.Context, onboardingID uint, clientID string) (*models.Onboarding, *utils.IdentityStatus, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, nil, apperror.ValidationFields(map[string]string{"clientId": "Client id is required!"})
	}
	st, err := i.provider.CheckStatus(ctx, clientID)
	if err != nil {
		log.Printf("[IDENTITY] status check %s failed: %v", clientID, err)
		return nil, nil, apperror.Upstream("Identity provider is unavailable, please try again!", err)
	}
	if !st.Verified() {
		return nil, st, apperror.Validation("Aadhaar verification is not complete!")
	}
	if strings.TrimSpace(st.AadhaarNumber) == "" {
		log.Printf("[IDENTITY] verified status %s carried no Aadhaar number", clientID)
		return nil, st, apperror.Upstream("Identity provider did not return the Aadhaar number!", nil)
	}

	rec, err := i.recorder.RecordVerification(ctx, onboardingID, lifecycle.VerificationResult{
		Flag:          lifecycle.VerifiedAadhaar,
		ClientID:      clientID,
		AadhaarNumber: st.AadhaarNumber,
		Profile:       st.Profile,
	})
	if err != nil {
		return nil, st, err
	}
	return rec, st, nil
}

// VerifyPAN checks the tax id with the registry and marks the draft.
func (i *Identity) VerifyPAN(ctx context.Context, onboardingID uint, pan string) (*models.Onboarding, *utils.PANResult, error) {
	pan = strings.ToUpper(strings.TrimSpace(pan))
	if !panPattern.MatchString(pan) {
		return nil, nil, apperror.ValidationFields(map[string]string{"panNumber": "Invalid PAN format!"})
	}
	res, err := i.provider.VerifyPAN(ctx, pan)
	if err != nil {
		log.Printf("[IDENTITY] PAN check failed: %v", err)
		return nil, nil, apperror.Upstream("Identity provider is unavailable, please try again!", err)
	}
	if !res.Valid {
		return nil, res, apperror.Validation("PAN could not be verified!")
	}

	rec, err := i.recorder.RecordVerification(ctx, onboardingID, lifecycle.VerificationResult{
		Flag:      lifecycle.VerifiedPan,
		PanNumber: pan,
	})
	if err != nil {
		return nil, res, err
	}
	return rec, res, nil
}
