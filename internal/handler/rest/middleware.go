package rest

import (
	"context"
	"net/http"

	"github.com/tidechat/tidechat/internal/domain/model"
	"github.com/tidechat/tidechat/internal/service"
)

type contextKey string

// authContextKey is the key used to store/retrieve the authenticated user
// from the request context.
const authContextKey contextKey = "auth_user"

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "jwt"

// AuthMiddleware validates the session cookie and injects the account into
// the request context.
type AuthMiddleware struct {
	auther service.Auther
}

func NewAuthMiddleware(auther service.Auther) *AuthMiddleware {
	return &AuthMiddleware{auther: auther}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := m.auther.Inspect(r.Context(), cookie.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext extracts the authenticated account injected by RequireAuth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(authContextKey).(*model.User)
	return user, ok
}
