package audit

import "time"

// Event is an immutable, append-only record of an authentication or
// tenancy change.
//
// Invariants:
//   - Events are never updated or deleted.
//   - Type is required. UserID is required except for failed logins, where
//     only the attempted username is known.
//   - Recording is best-effort; callers never fail a sign-in because the sink did.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	CompanyID string `json:"company_id,omitempty"`

	// IPAddress is the resolved client IP as seen by the API.
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventLoginSucceeded  EventType = "login_succeeded"
	EventLoginFailed     EventType = "login_failed"
	EventLogout          EventType = "logout"
	EventTokenRefreshed  EventType = "token_refreshed"
	EventRegistered      EventType = "registered"
	EventCompanySwitched EventType = "company_switched"
)
