package domain

import "strings"

// ============================================================
// Session
// ============================================================

// Session pairs an auth credential with a customer identifier. Both must be
// present for the session to count as logged in; a token without an id (or
// the reverse) is treated as no session at all.
type Session struct {
	AuthToken  string `json:"authToken"`
	CustomerID string `json:"customerId"`
}

// Valid reports whether the session denotes an authenticated customer.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.AuthToken) != "" && strings.TrimSpace(s.CustomerID) != ""
}

// SessionState is the full externally visible state of one session context:
// what the UI should render right now. Snapshots of it are returned from the
// session endpoint and pushed to watchers on every change.
type SessionState struct {
	Authenticated bool              `json:"authenticated"`
	CustomerID    string            `json:"customerId,omitempty"`
	Modal         VisibleModal      `json:"modal"`
	Verdict       OnboardingVerdict `json:"verdict"`
	SelectedArea  string            `json:"selectedArea"`
	TrackOrderID  string            `json:"trackOrderId,omitempty"`
	Areas         []Area            `json:"areas,omitempty"`
}
