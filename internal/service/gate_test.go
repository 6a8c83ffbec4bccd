package service_test

import (
	"testing"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/service"
)

func TestEvaluateProfile_MissingPhoneWinsOverEverything(t *testing.T) {
	profiles := []*domain.CustomerProfile{
		{ID: "c1", Phone: "", Address: nil, AreaID: ""},
		{ID: "c2", Phone: "   "},
		{ID: "c3", Phone: "", Address: &domain.CustomerAddress{TypedAddress: "12 MG Road"}, AreaID: "area-1"},
		nil,
	}
	for _, p := range profiles {
		if got := service.EvaluateProfile(p); got != domain.VerdictNeedsPhone {
			t.Errorf("profile %+v: expected needs_phone, got %s", p, got)
		}
	}
}

func TestEvaluateProfile_MissingAddressOrArea(t *testing.T) {
	cases := []struct {
		name    string
		profile *domain.CustomerProfile
	}{
		{"no address, no area", &domain.CustomerProfile{ID: "c1", Phone: "9999999999"}},
		{"address present, area missing", &domain.CustomerProfile{
			ID: "c2", Phone: "9999999999",
			Address: &domain.CustomerAddress{TypedAddress: "12 MG Road"},
		}},
		{"area present, address missing", &domain.CustomerProfile{
			ID: "c3", Phone: "9999999999", AreaID: "area-1",
		}},
		{"address blank string", &domain.CustomerProfile{
			ID: "c4", Phone: "9999999999",
			Address: &domain.CustomerAddress{TypedAddress: "   "},
			AreaID:  "area-1",
		}},
		{"area blank string", &domain.CustomerProfile{
			ID: "c5", Phone: "9999999999",
			Address: &domain.CustomerAddress{TypedAddress: "12 MG Road"},
			AreaID:  "  ",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := service.EvaluateProfile(tc.profile); got != domain.VerdictNeedsLocation {
				t.Errorf("expected needs_location, got %s", got)
			}
		})
	}
}

func TestEvaluateProfile_CompleteProfile(t *testing.T) {
	p := &domain.CustomerProfile{
		ID:      "cust-1",
		Phone:   "9999999999",
		Address: &domain.CustomerAddress{TypedAddress: "12 MG Road"},
		AreaID:  "area-1",
	}
	if got := service.EvaluateProfile(p); got != domain.VerdictNone {
		t.Errorf("expected none, got %s", got)
	}
}

func TestEvaluateProfile_Idempotent(t *testing.T) {
	p := &domain.CustomerProfile{
		ID:      "cust-1",
		Phone:   "9999999999",
		Address: &domain.CustomerAddress{TypedAddress: "12 MG Road"},
	}
	first := service.EvaluateProfile(p)
	second := service.EvaluateProfile(p)
	if first != second {
		t.Errorf("gate not idempotent: %s then %s", first, second)
	}
}
