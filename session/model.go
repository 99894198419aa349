package session

// User is the denormalized snapshot of the authenticated principal taken
// at login time. It may be stale relative to the server's record; the
// permission layer treats it as authoritative until the next login.
type User struct {
	ID               string `json:"id"`
	Role             string `json:"role"`
	SubscriptionTier string `json:"subscriptionTier"`
	DisplayName      string `json:"displayName,omitempty"`
	Email            string `json:"email,omitempty"`
}

// Record is the persisted session state. Timestamps are unix seconds.
//
// Invariant: CreatedAt <= LastActivityAt <= ExpiresAt for every record
// accepted by [Decode]. A record is valid iff now <= ExpiresAt and
// now - LastActivityAt <= the configured activity timeout.
type Record struct {
	ID             string `json:"id"`
	Token          string `json:"token"`
	User           User   `json:"user"`
	CreatedAt      int64  `json:"createdAt"`
	LastActivityAt int64  `json:"lastActivityAt"`
	ExpiresAt      int64  `json:"expiresAt"`
}
