package domain

// ============================================================
// Modal visibility / onboarding verdict
// ============================================================

// VisibleModal is the single modal the UI must show right now. Keeping it as
// one enum (instead of one boolean per popup) makes the at-most-one invariant
// structural: the field cannot hold two modals.
type VisibleModal string

const (
	ModalNone     VisibleModal = "none"
	ModalLogin    VisibleModal = "login"
	ModalSignup   VisibleModal = "signup"
	ModalPhone    VisibleModal = "phone"
	ModalLocation VisibleModal = "location"
	ModalProfile  VisibleModal = "profile"
)

// Onboarding reports whether the modal belongs to the onboarding phase.
// The profile overlay is suppressed while one of these is up.
func (m VisibleModal) Onboarding() bool {
	return m == ModalPhone || m == ModalLocation
}

// OnboardingVerdict is the derived decision of which missing-profile-data
// modal, if any, must be shown. It is never stored; it is recomputed from the
// current profile every time.
type OnboardingVerdict string

const (
	VerdictNone          OnboardingVerdict = "none"
	VerdictNeedsPhone    OnboardingVerdict = "needs_phone"
	VerdictNeedsLocation OnboardingVerdict = "needs_location"
)

// Modal maps a verdict to the onboarding modal it demands.
func (v OnboardingVerdict) Modal() VisibleModal {
	switch v {
	case VerdictNeedsPhone:
		return ModalPhone
	case VerdictNeedsLocation:
		return ModalLocation
	default:
		return ModalNone
	}
}
