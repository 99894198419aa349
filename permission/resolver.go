package permission

import (
	"errors"
	"sort"
)

// Config carries Resolver construction tables. Nil maps take the package
// defaults; the zero Config is fully usable.
type Config struct {
	Roles        map[string][]string
	TierRoles    map[string]string
	FeatureGates map[string]string
	RouteGuards  map[string][]string
}

// Resolver answers capability queries from flat role and tier tables. It
// holds no mutable state after construction and is safe for concurrent use.
type Resolver struct {
	roles        map[string]map[string]struct{}
	tierRoles    map[string]string
	featureGates map[string]string
	routeGuards  map[string][]string
}

// NewResolver builds a resolver from the given tables. The role table must
// contain the base user role, which backs unknown roles and unmapped tiers.
func NewResolver(cfg Config) (*Resolver, error) {
	if cfg.Roles == nil {
		cfg.Roles = DefaultRoles()
	}
	if cfg.TierRoles == nil {
		cfg.TierRoles = DefaultTierRoles()
	}
	if cfg.FeatureGates == nil {
		cfg.FeatureGates = DefaultFeatureGates()
	}
	if cfg.RouteGuards == nil {
		cfg.RouteGuards = DefaultRouteGuards()
	}
	if _, ok := cfg.Roles[RoleUser]; !ok {
		return nil, errors.New("role table must define the base user role")
	}
	for tier, role := range cfg.TierRoles {
		if _, ok := cfg.Roles[role]; !ok {
			return nil, errors.New("tier " + tier + " maps to unknown role " + role)
		}
	}

	roles := make(map[string]map[string]struct{}, len(cfg.Roles))
	for name, perms := range cfg.Roles {
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		roles[name] = set
	}

	return &Resolver{
		roles:        roles,
		tierRoles:    cfg.TierRoles,
		featureGates: cfg.FeatureGates,
		routeGuards:  cfg.RouteGuards,
	}, nil
}

// roleSet returns the permission set for a role, falling back to the base
// user role for unknown names.
func (r *Resolver) roleSet(role string) map[string]struct{} {
	if set, ok := r.roles[role]; ok {
		return set
	}
	return r.roles[RoleUser]
}

// tierSet returns the permission set the subscription tier grants.
func (r *Resolver) tierSet(tier string) map[string]struct{} {
	role, ok := r.tierRoles[tier]
	if !ok {
		role = RoleUser
	}
	return r.roleSet(role)
}

// Has reports whether the role/tier pair grants the permission. The answer
// is the union of both sources; permissions are strictly additive.
func (r *Resolver) Has(role, tier, perm string) bool {
	if _, ok := r.roleSet(role)[perm]; ok {
		return true
	}
	_, ok := r.tierSet(tier)[perm]
	return ok
}

// HasAny reports whether any of the permissions is granted. Short-circuits.
func (r *Resolver) HasAny(role, tier string, perms []string) bool {
	for _, p := range perms {
		if r.Has(role, tier, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether every permission is granted. Short-circuits.
func (r *Resolver) HasAll(role, tier string, perms []string) bool {
	for _, p := range perms {
		if !r.Has(role, tier, p) {
			return false
		}
	}
	return true
}

// Permissions returns the full deduplicated union of role and tier grants,
// sorted for stable display and audit output.
func (r *Resolver) Permissions(role, tier string) []string {
	roleSet := r.roleSet(role)
	tierSet := r.tierSet(tier)

	union := make(map[string]struct{}, len(roleSet)+len(tierSet))
	for p := range roleSet {
		union[p] = struct{}{}
	}
	for p := range tierSet {
		union[p] = struct{}{}
	}

	out := make([]string, 0, len(union))
	for p := range union {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// FeatureGate returns the permission guarding a feature, and whether the
// feature is gated at all.
func (r *Resolver) FeatureGate(feature string) (string, bool) {
	perm, ok := r.featureGates[feature]
	return perm, ok
}

// RouteGuard returns the qualifying permissions for a route, and whether
// the route is guarded at all.
func (r *Resolver) RouteGuard(route string) ([]string, bool) {
	perms, ok := r.routeGuards[route]
	return perms, ok
}

// CanAccessFeature reports whether the feature is accessible. Features
// absent from the gate table are unconditionally accessible.
func (r *Resolver) CanAccessFeature(role, tier, feature string) bool {
	perm, gated := r.featureGates[feature]
	if !gated {
		return true
	}
	return r.Has(role, tier, perm)
}

// CanAccessRoute reports whether the route is accessible. Any one
// qualifying permission suffices; unguarded routes are open.
func (r *Resolver) CanAccessRoute(role, tier, route string) bool {
	perms, guarded := r.routeGuards[route]
	if !guarded {
		return true
	}
	return r.HasAny(role, tier, perms)
}
