package tier

import (
	"testing"

	"github.com/venturebridge/venturebridge/internal/config"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(config.DefaultCatalogConfig())
}

func TestGetKnownTier(t *testing.T) {
	r := newTestRegistry(t)

	def := r.Get("investor_basic", RoleProvider)
	if def.ID != "investor_basic" {
		t.Fatalf("expected investor_basic, got %s", def.ID)
	}
	if def.Quotas.Contacts.Limit() != 20 {
		t.Fatalf("expected 20 contacts, got %d", def.Quotas.Contacts.Limit())
	}
	if def.Quotas.ProfileViews.Limit() != 30 {
		t.Fatalf("expected 30 profile views, got %d", def.Quotas.ProfileViews.Limit())
	}
}

func TestGetUnknownTierFallsBackToFreeTier(t *testing.T) {
	r := newTestRegistry(t)

	def := r.Get("no_such_tier", RoleSeeker)
	if def.ID != "explore" {
		t.Fatalf("expected explore fallback, got %s", def.ID)
	}
	if def.BasePrice != 0 {
		t.Fatalf("fallback must be free, got %d", def.BasePrice)
	}

	def = r.Get("no_such_tier", RoleProvider)
	if def.ID != "investor_free" {
		t.Fatalf("expected investor_free fallback, got %s", def.ID)
	}
}

func TestGetUnknownRoleLocksEverything(t *testing.T) {
	r := newTestRegistry(t)

	def := r.Get("anything", RoleOperator)
	if def.Quotas.ProfileViews.Allows(0) {
		t.Fatal("locked definition must not allow profile views")
	}
	if def.Quotas.Contacts.Allows(0) {
		t.Fatal("locked definition must not allow contacts")
	}
}

func TestQuotaUnbounded(t *testing.T) {
	r := newTestRegistry(t)

	quota := r.Quota("startup_growth", RoleSeeker, MetricProfileViews)
	if !quota.IsUnbounded() {
		t.Fatal("growth profile views must be unbounded")
	}
	if !quota.Allows(1 << 40) {
		t.Fatal("unbounded quota must always allow")
	}

	quota = r.Quota("startup_growth", RoleSeeker, MetricContacts)
	if quota.IsUnbounded() {
		t.Fatal("growth contacts must be bounded")
	}
	if quota.Limit() != 50 {
		t.Fatalf("expected 50 contacts, got %d", quota.Limit())
	}
}

func TestCountAllows(t *testing.T) {
	c := CountOf(3)
	if !c.Allows(2) {
		t.Fatal("2 of 3 used must allow")
	}
	if c.Allows(3) {
		t.Fatal("3 of 3 used must deny")
	}

	if !CountOf(-1).IsUnbounded() {
		t.Fatal("negative count must map to unbounded")
	}
	if CountOf(0).Allows(0) {
		t.Fatal("zero quota must deny the first action")
	}
}

func TestHasFeature(t *testing.T) {
	r := newTestRegistry(t)

	if !r.HasFeature("investor_basic", RoleProvider, "deal room") {
		t.Fatal("investor_basic should match deal room")
	}
	if !r.HasFeature("investor_basic", RoleProvider, "DEAL ROOM") {
		t.Fatal("matching must be case-insensitive")
	}
	if r.HasFeature("investor_free", RoleProvider, "deal room") {
		t.Fatal("investor_free should not match deal room")
	}
	if r.HasFeature("investor_basic", RoleProvider, "") {
		t.Fatal("empty needle must never match")
	}
}

func TestListFiltersByRole(t *testing.T) {
	r := newTestRegistry(t)

	for _, def := range r.List(RoleSeeker) {
		if def.Role != RoleSeeker {
			t.Fatalf("unexpected role %s in seeker list", def.Role)
		}
	}
	if len(r.List(RoleSeeker)) != 3 {
		t.Fatalf("expected 3 seeker tiers, got %d", len(r.List(RoleSeeker)))
	}
	if len(r.List(RoleProvider)) != 3 {
		t.Fatalf("expected 3 provider tiers, got %d", len(r.List(RoleProvider)))
	}
}
