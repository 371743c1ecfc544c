package auth

import (
	"context"

	"github.com/eyeson-app/eyeson/internal/model"
)

type contextKey struct{}

// WithUser attaches the authenticated user to the request context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext returns the authenticated user, if any.
func FromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(contextKey{}).(*model.User)
	return u, ok
}

// UserID returns the authenticated user's id, or "" when unauthenticated.
func UserID(ctx context.Context) string {
	u, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return u.ID
}

// IsModerator reports whether the authenticated user has moderator rights.
func IsModerator(ctx context.Context) bool {
	u, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return u.IsModerator
}
