package service

import "github.com/zaikaapp/session-bfa-go/internal/domain"

// EvaluateProfile is the customer profile gate: given the current profile it
// decides which onboarding modal, if any, must be shown. Pure function.
//
// The priority order is load-bearing: a missing phone wins over everything
// else, so a customer missing both phone and address resolves phone first
// and has the address re-evaluated afterwards. The gate never signals both.
func EvaluateProfile(p *domain.CustomerProfile) domain.OnboardingVerdict {
	if !p.HasPhone() {
		return domain.VerdictNeedsPhone
	}
	if !p.HasAddress() || !p.HasArea() {
		return domain.VerdictNeedsLocation
	}
	return domain.VerdictNone
}
