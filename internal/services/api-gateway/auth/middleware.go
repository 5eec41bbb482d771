package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/NordCoder/Versionwatch/internal/domain/user"
	"github.com/NordCoder/Versionwatch/internal/repository/postgres"
	"github.com/NordCoder/Versionwatch/internal/services/api-gateway/httpx"
)

type ctxKey int

const userKey ctxKey = 1

func UserFromCtx(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey).(*user.User)
	return u, ok
}

// WithUser is used by tests and by the middleware below.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// Middleware rejects requests without a valid bearer token and stores the
// resolved user in the request context.
func Middleware(parse func(token string) (string, error), users user.Repo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearer(r)
			if token == "" {
				httpx.Fail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			uid, err := parse(token)
			if err != nil {
				httpx.Fail(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			u, err := users.GetByID(r.Context(), uid)
			if err != nil {
				if errors.Is(err, postgres.ErrNotFound) {
					httpx.Fail(w, http.StatusUnauthorized, "User not found")
					return
				}
				httpx.Fail(w, http.StatusInternalServerError, "Failed to load user")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
