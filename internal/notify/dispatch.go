package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eyeson-app/eyeson/internal/model"
)

// Dispatcher delivers one approval alert to one fan-out candidate. The
// delivery mechanism (web push, FCM relay) is behind this boundary.
type Dispatcher interface {
	Dispatch(ctx context.Context, user model.NearbyUser, n Notification) error
}

// SubscriptionSource looks up a user's registered push endpoints.
type SubscriptionSource interface {
	ListByUser(userID string) ([]model.PushSubscription, error)
	DeleteByEndpoint(endpoint string) error
}

// WebPushDispatcher fans an alert out to every push subscription a user has
// registered. Expired endpoints are pruned as they are discovered.
type WebPushDispatcher struct {
	service *WebPushService
	subs    SubscriptionSource
	logger  *slog.Logger
}

func NewWebPushDispatcher(service *WebPushService, subs SubscriptionSource, logger *slog.Logger) *WebPushDispatcher {
	return &WebPushDispatcher{service: service, subs: subs, logger: logger}
}

// Dispatch sends n to all of the user's subscriptions. Individual send
// failures are logged; the first non-expiry failure is returned after the
// remaining subscriptions have been attempted.
func (d *WebPushDispatcher) Dispatch(ctx context.Context, user model.NearbyUser, n Notification) error {
	subs, err := d.subs.ListByUser(user.UserID)
	if err != nil {
		return fmt.Errorf("list subscriptions for %s: %w", user.UserID, err)
	}

	payload := Payload{
		Title:    n.Title,
		Body:     n.Body,
		Tag:      n.ID,
		Metadata: n.Metadata,
	}

	var firstErr error
	for i := range subs {
		if err := d.service.Send(&subs[i], payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if derr := d.subs.DeleteByEndpoint(subs[i].Endpoint); derr != nil {
					d.logger.Warn("prune expired subscription", "error", derr)
				}
				continue
			}
			d.logger.Warn("send push", "user_id", user.UserID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
