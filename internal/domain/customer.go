package domain

import "strings"

// ============================================================
// Customer / Areas
// ============================================================

// CustomerAddress is the structured delivery address stored on a customer.
// Only TypedAddress matters for onboarding: it is the free-text line the
// customer typed (or that reverse geocoding produced).
type CustomerAddress struct {
	TypedAddress string `json:"typedAddress"`
}

// Area is a deliverable city area as served by the areas endpoint.
type Area struct {
	ID       string `json:"id"`
	AreaName string `json:"areaName"`
}

// OrderRef is a lightweight reference to a past order, as embedded in the
// customer payload. Used only for the track-order shortcut.
type OrderRef struct {
	ID string `json:"id"`
}

// CustomerProfile mirrors the ordering backend's customer resource.
// The backend owns it; this service caches it as a read-mostly mirror and
// mutates the cache only as an optimistic merge after a successful update.
type CustomerProfile struct {
	ID      string           `json:"id"`
	Name    string           `json:"name,omitempty"`
	Phone   string           `json:"phone,omitempty"`
	Area    *Area            `json:"area,omitempty"`
	AreaID  string           `json:"areaId,omitempty"`
	Address *CustomerAddress `json:"address,omitempty"`
	Orders  []OrderRef       `json:"orders,omitempty"`
}

// HasPhone reports whether the profile carries a usable phone number.
func (p *CustomerProfile) HasPhone() bool {
	return p != nil && strings.TrimSpace(p.Phone) != ""
}

// HasAddress reports whether the structured address carries a non-blank
// typed address line.
func (p *CustomerProfile) HasAddress() bool {
	return p != nil && p.Address != nil && strings.TrimSpace(p.Address.TypedAddress) != ""
}

// HasArea reports whether the profile is bound to a deliverable area.
func (p *CustomerProfile) HasArea() bool {
	return p != nil && strings.TrimSpace(p.AreaID) != ""
}

// FirstOrderID returns the id of the most recent order, or "" when the
// customer has never ordered. The backend returns orders newest-first.
func (p *CustomerProfile) FirstOrderID() string {
	if p == nil || len(p.Orders) == 0 {
		return ""
	}
	return p.Orders[0].ID
}
