package auth

import (
	"time"

	"github.com/google/uuid"
)

// Session is a signed-in user as seen by this service. The identity
// provider owns the user; we only track id, email and expiry.
type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// State is the auth state of one request. Loading is true until the
// session registry has been restored; User is nil when signed out.
type State struct {
	User    *Session
	Loading bool
}

func (s State) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.UserID.String()
}

type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
	EventExpired        EventType = "expired"
)

// Event is a session change, published on the session channel and
// delivered to OnChange listeners.
type Event struct {
	Type    EventType `json:"type"`
	Session *Session  `json:"session"`
	Origin  string    `json:"origin,omitempty"`

	// Previous is the session id a refresh replaced.
	Previous string `json:"previous,omitempty"`
}

// Removes reports whether the event ends the session.
func (e Event) Removes() bool {
	return e.Type == EventSignedOut || e.Type == EventExpired
}
