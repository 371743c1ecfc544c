package model

import "time"

// PushSubscription is a browser/device web-push endpoint registered by a user.
// A user may hold several (one per device).
type PushSubscription struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}
