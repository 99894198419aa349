package permission

import (
	"sort"
	"testing"
)

func newDefaultResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(Config{})
	if err != nil {
		t.Fatalf("resolver construction failed: %v", err)
	}
	return r
}

func TestBasicRoleWithPremiumTier(t *testing.T) {
	r := newDefaultResolver(t)

	// A basic_user role holder on the premium subscription gets cycle
	// analysis through the tier side of the union.
	if !r.Has(RoleBasic, TierPremium, "analytics.cycle") {
		t.Fatal("premium tier must grant analytics.cycle regardless of role")
	}
	if !r.Has(RoleBasic, TierFree, "watchlist.manage") {
		t.Fatal("basic_user role must keep its own grants on the free tier")
	}
	if r.Has(RoleBasic, TierFree, "analytics.cycle") {
		t.Fatal("neither side grants analytics.cycle here")
	}
}

func TestUnionIsAdditive(t *testing.T) {
	r := newDefaultResolver(t)

	perms := r.Permissions(RoleBasic, TierPremium)
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}

	for _, p := range DefaultRoles()[RoleBasic] {
		if _, ok := set[p]; !ok {
			t.Fatalf("role grant %q missing from union", p)
		}
	}
	for _, p := range DefaultRoles()[RolePremium] {
		if _, ok := set[p]; !ok {
			t.Fatalf("tier grant %q missing from union", p)
		}
	}
	if !sort.StringsAreSorted(perms) {
		t.Fatal("permission union must be sorted")
	}
	for i := 1; i < len(perms); i++ {
		if perms[i] == perms[i-1] {
			t.Fatalf("duplicate permission %q in union", perms[i])
		}
	}
}

func TestUnknownRoleFallsBackToBaseUser(t *testing.T) {
	r := newDefaultResolver(t)

	if !r.Has("made-up-role", TierFree, "signals.view") {
		t.Fatal("unknown role must inherit the base user grants")
	}
	if r.Has("made-up-role", TierFree, "admin.panel") {
		t.Fatal("unknown role must not gain elevated grants")
	}
}

func TestUnmappedTierFallsBackToBaseUser(t *testing.T) {
	r := newDefaultResolver(t)

	// Elite has no bundle mapping yet; it behaves like the free tier.
	if r.Has(RoleUser, TierElite, "analytics.cycle") {
		t.Fatal("unmapped tier must not grant premium permissions")
	}
	if !r.Has(RoleUser, TierElite, "charts.view") {
		t.Fatal("unmapped tier keeps the base user grants")
	}
}

func TestHasAnyHasAll(t *testing.T) {
	r := newDefaultResolver(t)

	if !r.HasAny(RoleUser, TierFree, []string{"admin.panel", "charts.view"}) {
		t.Fatal("HasAny should succeed on one granted permission")
	}
	if r.HasAny(RoleUser, TierFree, []string{"admin.panel", "users.manage"}) {
		t.Fatal("HasAny should fail when nothing is granted")
	}
	if !r.HasAll(RoleUser, TierFree, []string{"signals.view", "charts.view"}) {
		t.Fatal("HasAll should succeed when everything is granted")
	}
	if r.HasAll(RoleUser, TierFree, []string{"signals.view", "admin.panel"}) {
		t.Fatal("HasAll should fail on any missing permission")
	}
	if r.HasAny(RoleUser, TierFree, nil) {
		t.Fatal("HasAny over nothing is false")
	}
	if !r.HasAll(RoleUser, TierFree, nil) {
		t.Fatal("HasAll over nothing is vacuously true")
	}
}

func TestFeatureGates(t *testing.T) {
	r := newDefaultResolver(t)

	if r.CanAccessFeature(RoleUser, TierFree, "cycle-analysis") {
		t.Fatal("free user must not reach cycle analysis")
	}
	if !r.CanAccessFeature(RoleUser, TierPremium, "cycle-analysis") {
		t.Fatal("premium tier must reach cycle analysis")
	}
	if !r.CanAccessFeature(RoleUser, TierFree, "unlisted-feature") {
		t.Fatal("ungated features are open to everyone")
	}
}

func TestRouteGuards(t *testing.T) {
	r := newDefaultResolver(t)

	if r.CanAccessRoute(RoleUser, TierFree, "/admin") {
		t.Fatal("base user must not reach /admin")
	}
	if !r.CanAccessRoute(RoleAdmin, TierFree, "/admin") {
		t.Fatal("admin must reach /admin")
	}
	// /analytics accepts either analytics permission.
	if !r.CanAccessRoute(RoleUser, TierPremium, "/analytics") {
		t.Fatal("premium tier must reach /analytics")
	}
	if !r.CanAccessRoute(RoleUser, TierFree, "/anything-else") {
		t.Fatal("unguarded routes are open")
	}
}

func TestResolverRejectsBrokenTables(t *testing.T) {
	if _, err := NewResolver(Config{
		Roles: map[string][]string{"admin": {"admin.panel"}},
	}); err == nil {
		t.Fatal("role table without the base user role must be rejected")
	}
	if _, err := NewResolver(Config{
		Roles:     map[string][]string{RoleUser: {"signals.view"}},
		TierRoles: map[string]string{"gold": "nonexistent"},
	}); err == nil {
		t.Fatal("tier mapping to an unknown role must be rejected")
	}
}

func TestCustomTables(t *testing.T) {
	r, err := NewResolver(Config{
		Roles: map[string][]string{
			RoleUser: {"read"},
			"editor": {"read", "write"},
		},
		TierRoles:    map[string]string{"paid": "editor"},
		FeatureGates: map[string]string{"editing": "write"},
		RouteGuards:  map[string][]string{"/edit": {"write"}},
	})
	if err != nil {
		t.Fatalf("resolver construction failed: %v", err)
	}

	if !r.Has(RoleUser, "paid", "write") {
		t.Fatal("custom tier mapping must grant editor permissions")
	}
	if !r.CanAccessFeature("editor", "", "editing") {
		t.Fatal("custom feature gate must pass for editor")
	}
	if r.CanAccessRoute(RoleUser, "", "/edit") {
		t.Fatal("custom route guard must block the base user")
	}
}
