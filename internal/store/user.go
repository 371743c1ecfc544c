package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/eyeson-app/eyeson/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user record tied to an auth session id.
func (s *UserStore) Create(id, email string, isAnonymous, isModerator bool) (*model.User, error) {
	u := &model.User{
		ID:          id,
		Email:       email,
		IsAnonymous: isAnonymous,
		IsModerator: isModerator,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, is_anonymous, is_moderator, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, boolToInt(u.IsAnonymous), boolToInt(u.IsModerator), u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID returns a user, or nil if it does not exist.
func (s *UserStore) GetByID(id string) (*model.User, error) {
	var u model.User
	var isAnon, isMod int
	var email, token sql.NullString
	var lat, lon sql.NullFloat64
	var locatedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, email, is_anonymous, is_moderator, created_at, latitude, longitude, located_at, push_token
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &email, &isAnon, &isMod, &u.CreatedAt, &lat, &lon, &locatedAt, &token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Email = email.String
	u.IsAnonymous = isAnon != 0
	u.IsModerator = isMod != 0
	u.PushToken = token.String
	if lat.Valid && lon.Valid {
		u.Latitude = &lat.Float64
		u.Longitude = &lon.Float64
	}
	if locatedAt.Valid {
		t := locatedAt.Time
		u.LocatedAt = &t
	}
	return &u, nil
}

// UpdateLocationAndToken records the user's last-known location and push
// delivery token with a fresh timestamp.
func (s *UserStore) UpdateLocationAndToken(userID string, lat, lon float64, token string) error {
	_, err := s.db.Exec(
		`UPDATE users SET latitude = ?, longitude = ?, located_at = ?, push_token = ? WHERE id = ?`,
		lat, lon, time.Now().UTC(), token, userID,
	)
	if err != nil {
		return fmt.Errorf("update user location: %w", err)
	}
	return nil
}

// FreshlyLocated returns users whose location and push token were recorded at
// or after cutoff. These are the fan-out candidates for an approved report.
func (s *UserStore) FreshlyLocated(cutoff time.Time) ([]model.NearbyUser, error) {
	rows, err := s.db.Query(
		`SELECT id, push_token, latitude, longitude, located_at FROM users
		 WHERE push_token IS NOT NULL AND push_token != ''
		   AND latitude IS NOT NULL AND longitude IS NOT NULL
		   AND located_at >= ?`, cutoff.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list freshly located users: %w", err)
	}
	defer rows.Close()

	var users []model.NearbyUser
	for rows.Next() {
		var u model.NearbyUser
		if err := rows.Scan(&u.UserID, &u.Token, &u.Latitude, &u.Longitude, &u.LocatedAt); err != nil {
			return nil, fmt.Errorf("scan nearby user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
