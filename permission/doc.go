// Package permission computes the effective permission set a user holds
// from their role and subscription tier. It is pure: no I/O, no mutation
// after construction.
//
// Role tables are flat: every role enumerates its full permission list,
// including entries also held by lower roles. There is no inheritance
// graph; the union of the role bundle and the tier-derived bundle is the
// complete answer, and it is strictly additive.
package permission
