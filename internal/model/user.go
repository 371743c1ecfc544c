package model

import "time"

// LocationFreshness is how recent a user's last-known location and push token
// must be for the user to be eligible for approval fan-out.
const LocationFreshness = 2 * time.Hour

// User is a registered account. Location and push-token fields are optional
// and only considered for fan-out while fresh (see LocationFreshness).
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email,omitempty"`
	IsAnonymous bool       `json:"is_anonymous"`
	IsModerator bool       `json:"is_moderator"`
	CreatedAt   time.Time  `json:"created_at"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	LocatedAt   *time.Time `json:"located_at,omitempty"`
	PushToken   string     `json:"-"`
}

// NearbyUser is a fan-out candidate: a user with a fresh last-known location
// and a push delivery token.
type NearbyUser struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	LocatedAt time.Time `json:"located_at"`
}
