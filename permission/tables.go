package permission

// Role identifiers. RoleUser doubles as the fallback for unknown roles and
// unmapped subscription tiers.
const (
	RoleUser      = "user"
	RoleBasic     = "basic_user"
	RolePremium   = "premium_user"
	RolePro       = "pro_user"
	RoleAdmin     = "admin"
	RoleSuperuser = "superuser"
)

// Subscription tier identifiers.
const (
	TierFree    = "free"
	TierBasic   = "basic"
	TierPremium = "premium"
	TierPro     = "pro"
	TierElite   = "elite"
)

// DefaultRoles is the flat role table. Each list is the role's complete
// permission set; higher roles repeat everything lower roles hold.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		RoleUser: {
			"signals.view",
			"charts.view",
			"profile.view",
			"profile.edit",
		},
		RoleBasic: {
			"signals.view",
			"charts.view",
			"profile.view",
			"profile.edit",
			"signals.create",
			"alerts.create",
			"watchlist.manage",
		},
		RolePremium: {
			"signals.view",
			"charts.view",
			"profile.view",
			"profile.edit",
			"signals.create",
			"alerts.create",
			"watchlist.manage",
			"analytics.view",
			"analytics.cycle",
			"signals.export",
			"alerts.advanced",
		},
		RolePro: {
			"signals.view",
			"charts.view",
			"profile.view",
			"profile.edit",
			"signals.create",
			"alerts.create",
			"watchlist.manage",
			"analytics.view",
			"analytics.cycle",
			"signals.export",
			"alerts.advanced",
			"portfolio.manage",
			"signals.backtest",
			"analytics.realtime",
			"api.access",
		},
		RoleAdmin: {
			"signals.view",
			"charts.view",
			"profile.view",
			"profile.edit",
			"signals.create",
			"alerts.create",
			"watchlist.manage",
			"analytics.view",
			"analytics.cycle",
			"signals.export",
			"alerts.advanced",
			"portfolio.manage",
			"signals.backtest",
			"analytics.realtime",
			"api.access",
			"admin.panel",
			"users.manage",
			"signals.moderate",
			"billing.view",
		},
		RoleSuperuser: {
			"signals.view",
			"charts.view",
			"profile.view",
			"profile.edit",
			"signals.create",
			"alerts.create",
			"watchlist.manage",
			"analytics.view",
			"analytics.cycle",
			"signals.export",
			"alerts.advanced",
			"portfolio.manage",
			"signals.backtest",
			"analytics.realtime",
			"api.access",
			"admin.panel",
			"users.manage",
			"signals.moderate",
			"billing.view",
			"system.configure",
			"billing.manage",
			"roles.manage",
		},
	}
}

// DefaultTierRoles maps a subscription tier to the role bundle used for
// tier-derived permissions. Tiers absent from the map (elite included)
// resolve to the base user bundle.
func DefaultTierRoles() map[string]string {
	return map[string]string{
		TierFree:    RoleUser,
		TierBasic:   RoleBasic,
		TierPremium: RolePremium,
		TierPro:     RolePro,
	}
}

// DefaultFeatureGates maps feature names to their single required
// permission. Features absent from the map require nothing.
func DefaultFeatureGates() map[string]string {
	return map[string]string{
		"advanced-analytics": "analytics.view",
		"cycle-analysis":     "analytics.cycle",
		"signal-export":      "signals.export",
		"realtime-analytics": "analytics.realtime",
		"backtesting":        "signals.backtest",
		"portfolio-tracker":  "portfolio.manage",
		"api-keys":           "api.access",
		"admin-panel":        "admin.panel",
	}
}

// DefaultRouteGuards maps route paths to qualifying permissions; holding
// any one of them grants access. Routes absent from the map are open.
func DefaultRouteGuards() map[string][]string {
	return map[string][]string{
		"/admin":          {"admin.panel"},
		"/analytics":      {"analytics.view", "analytics.cycle"},
		"/portfolio":      {"portfolio.manage"},
		"/signals/export": {"signals.export"},
		"/settings/api":   {"api.access"},
	}
}
