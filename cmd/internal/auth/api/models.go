package authapi

import "time"

const (
	agentTypeUser      = "user"
	agentTypeAnonymous = "anonymous"
)

type userInfoResponse struct {
	Type      string     `json:"type"`
	OwnerID   string     `json:"owner_id"`
	UserID    string     `json:"user_id,omitempty"`
	Username  string     `json:"username,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
