package middleware

import (
	"net/http"
	"strings"

	"github.com/eyeson-app/eyeson/internal/auth"
	"github.com/eyeson-app/eyeson/internal/model"
)

// UserResolver turns a bearer token into a user. Tokens are auth-session user
// ids issued and verified by the external auth provider; account management
// itself lives outside this service.
type UserResolver interface {
	GetByID(id string) (*model.User, error)
}

// RequireAuth returns middleware that resolves the Authorization bearer token
// to a user and stores it in the request context. Requests without a valid
// token get 401.
func RequireAuth(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			u, err := users.GetByID(token)
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if u == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
