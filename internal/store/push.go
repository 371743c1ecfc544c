package store

import (
	"database/sql"
	"fmt"

	"github.com/eyeson-app/eyeson/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

// CreateSubscription upserts a web-push subscription keyed by endpoint.
func (s *PushStore) CreateSubscription(userID, endpoint, p256dh, auth, deviceName string) (*model.PushSubscription, error) {
	result, err := s.db.Exec(
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key, device_name)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key, device_name = excluded.device_name`,
		userID, endpoint, p256dh, auth, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	id, _ := result.LastInsertId()

	// LastInsertId may be 0 on conflict update; re-query by endpoint
	if id == 0 {
		return s.GetByEndpoint(endpoint)
	}
	return s.getByID(id)
}

func (s *PushStore) getByID(id int64) (*model.PushSubscription, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, endpoint, p256dh_key, auth_key, device_name, created_at
		 FROM push_subscriptions WHERE id = ?`, id,
	)
	return scanSubscription(row, "get push subscription")
}

// GetByEndpoint returns the subscription for an endpoint, or nil.
func (s *PushStore) GetByEndpoint(endpoint string) (*model.PushSubscription, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, endpoint, p256dh_key, auth_key, device_name, created_at
		 FROM push_subscriptions WHERE endpoint = ?`, endpoint,
	)
	return scanSubscription(row, "get push subscription by endpoint")
}

// ListByUser returns all subscriptions registered by a user, newest first.
func (s *PushStore) ListByUser(userID string) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, endpoint, p256dh_key, auth_key, device_name, created_at
		 FROM push_subscriptions WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions by user: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// DeleteByEndpoint removes a subscription; used when the push service reports
// the endpoint gone.
func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}

func scanSubscription(row *sql.Row, op string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := row.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
