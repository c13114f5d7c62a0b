package middleware

import (
	"net/http"

	"github.com/acmepay/walletd/internal/handlers/render"
	"github.com/acmepay/walletd/internal/handlers/userctx"
)

// RequireAdmin rejects requests whose authenticated user is not an admin.
// Must be chained after AuthMiddleware. The role lives on the users table,
// so a forged client-side flag can't pass it.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if !user.IsAdmin() {
			render.ServiceError(w, "Admin role required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
