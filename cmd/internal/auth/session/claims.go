package session

import "time"

// DefaultTTL is the lifetime of sessions and anonymous owners.
const DefaultTTL = 48 * time.Hour

// Claims is the decoded session payload.
type Claims struct {
	ID        string
	OwnerID   string
	UserID    *string
	ExpiresAt time.Time
}

// Anonymous reports whether the session belongs to an anonymous owner.
func (c Claims) Anonymous() bool { return c.UserID == nil }

// Expired reports whether c has expired at now.
func (c Claims) Expired(now time.Time) bool { return !now.Before(c.ExpiresAt) }

// Owner is the root identity resources belong to. A nil ExpiresAt marks a
// permanent, user-linked owner; anonymous owners always expire.
type Owner struct {
	ID        string
	ExpiresAt *time.Time
}

// Anonymous reports whether o is an expiring anonymous owner.
func (o Owner) Anonymous() bool { return o.ExpiresAt != nil }

// SweepResult counts rows removed by one SweepExpired call.
type SweepResult struct {
	Owners   int64
	Sessions int64
}

// NewExpiry returns now+DefaultTTL truncated to whole seconds, the
// precision a token can carry.
func NewExpiry(now time.Time) time.Time {
	return now.Add(DefaultTTL).UTC().Truncate(time.Second)
}
