package casetypes

import (
	"errors"
	"testing"
)

func TestLoadValidatesEveryBranch(t *testing.T) {
	resolver, err := Load()
	if err != nil {
		t.Fatalf("expected embedded table to load, got %v", err)
	}

	for _, branch := range []string{"development", "acceptance", "production"} {
		if !resolver.HasBranch(branch) {
			t.Fatalf("expected branch %q to be configured", branch)
		}
	}
}

func TestResolveByAppIDAndFormNameAgree(t *testing.T) {
	resolver, err := Load()
	if err != nil {
		t.Fatalf("failed to load table: %v", err)
	}

	byApp, err := resolver.Resolve("development", Selector{AppID: "R01"})
	if err != nil {
		t.Fatalf("resolve by appId failed: %v", err)
	}
	byForm, err := resolver.Resolve("development", Selector{FormName: "kamerverhuurvergunningaanvragen"})
	if err != nil {
		t.Fatalf("resolve by form name failed: %v", err)
	}

	if byApp.Zaaktype != byForm.Zaaktype {
		t.Fatalf("expected identical zaaktype, got %q and %q", byApp.Zaaktype, byForm.Zaaktype)
	}
	if byApp.AppID != "R01" {
		t.Fatalf("expected appId R01, got %q", byApp.AppID)
	}
	if byApp.Bronorganisatie == "" {
		t.Fatalf("expected bronorganisatie to be set")
	}
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	resolver, err := Load()
	if err != nil {
		t.Fatalf("failed to load table: %v", err)
	}

	props, err := resolver.Resolve("development", Selector{AppID: "r01"})
	if err != nil {
		t.Fatalf("expected lowercase appId to resolve, got %v", err)
	}
	if props.AppID != "R01" {
		t.Fatalf("expected appId R01, got %q", props.AppID)
	}

	if _, err := resolver.Resolve("development", Selector{FormName: "Kamerverhuurvergunningaanvragen"}); err != nil {
		t.Fatalf("expected mixed-case form name to resolve, got %v", err)
	}
}

func TestResolveRequiresExactlyOneSelector(t *testing.T) {
	resolver, err := Load()
	if err != nil {
		t.Fatalf("failed to load table: %v", err)
	}

	if _, err := resolver.Resolve("development", Selector{}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error for empty selector, got %v", err)
	}
	if _, err := resolver.Resolve("development", Selector{AppID: "R01", FormName: "kamerverhuurvergunningaanvragen"}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error for double selector, got %v", err)
	}
}

func TestResolveUnknownBranchOrEntry(t *testing.T) {
	resolver, err := Load()
	if err != nil {
		t.Fatalf("failed to load table: %v", err)
	}

	if _, err := resolver.Resolve("staging", Selector{AppID: "R01"}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown branch, got %v", err)
	}
	if _, err := resolver.Resolve("development", Selector{AppID: "R99"}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown appId, got %v", err)
	}
	if _, err := resolver.Resolve("development", Selector{FormName: "parkeervergunningaanvragen"}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown form, got %v", err)
	}
}

func TestSecondaryFormNamesResolveToSameEntry(t *testing.T) {
	resolver, err := Load()
	if err != nil {
		t.Fatalf("failed to load table: %v", err)
	}

	split, err := resolver.Resolve("development", Selector{FormName: "splitsingsvergunningaanvragen"})
	if err != nil {
		t.Fatalf("resolve splitsingsvergunningaanvragen failed: %v", err)
	}
	omzet, err := resolver.Resolve("development", Selector{FormName: "omzettingsvergunningaanvragen"})
	if err != nil {
		t.Fatalf("resolve omzettingsvergunningaanvragen failed: %v", err)
	}

	if split.AppID != "R02" || omzet.AppID != "R02" {
		t.Fatalf("expected both form names to map to R02, got %q and %q", split.AppID, omzet.AppID)
	}
}
