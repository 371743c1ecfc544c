package websocket

import (
	"context"

	"github.com/eyeson-app/eyeson/internal/notify"
)

// Sink surfaces local notifications to attached UI shells over the hub. The
// message carries the notification id, so a shell that receives the same id
// twice can dedup at the presentation layer.
type Sink struct {
	hub *Hub
}

func NewSink(hub *Hub) *Sink {
	return &Sink{hub: hub}
}

// Schedule broadcasts the notification immediately.
func (s *Sink) Schedule(_ context.Context, n notify.Notification) error {
	extra := map[string]any{
		"title": n.Title,
		"body":  n.Body,
	}
	for k, v := range n.Metadata {
		extra[k] = v
	}
	s.hub.Broadcast(NewMessage(EntityNotification, ActionScheduled, n.ID, extra))
	return nil
}
