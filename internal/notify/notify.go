package notify

import "context"

// Notification is a single alert handed to a delivery surface. ID is stable
// per report so the underlying surface dedups repeated scheduling naturally.
type Notification struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Sink schedules a local notification that fires effectively immediately.
type Sink interface {
	Schedule(ctx context.Context, n Notification) error
}
