package utils

import (
	"strings"

	"hrms/models"
)

// PresentOnboarding returns a copy of o safe to send to clients: the Aadhaar number is masked
// and provider profile fields that echo it are dropped.
func PresentOnboarding(o *models.Onboarding) *models.Onboarding {
	if o == nil {
		return nil
	}
	out := *o
	out.AadhaarNumber = MaskAadhaar(o.AadhaarNumber)
	if len(o.IdentityProfile) > 0 {
		profile := make(map[string]interface{}, len(o.IdentityProfile))
		for k, v := range o.IdentityProfile {
			if strings.Contains(strings.ToLower(k), "aadhaar") {
				continue
			}
			profile[k] = v
		}
		out.IdentityProfile = profile
	}
	return &out
}

// PresentOnboardings masks every record of list.
func PresentOnboardings(list []models.Onboarding) []*models.Onboarding {
	out := make([]*models.Onboarding, 0, len(list))
	for i := range list {
		out = append(out, PresentOnboarding(&list[i]))
	}
	return out
}
