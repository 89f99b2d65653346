package middleware

import (
	"net/http"
	"strings"

	"github.com/ayush/microblog/internal/auth"
	"github.com/ayush/microblog/internal/web"
)

// RequireAuth gates protected routes. It resolves the session cookie
// via the session manager and injects the user ID into the request
// context. Anonymous browser requests are redirected to the login
// page with a notice; API clients get 401 JSON.
func RequireAuth(sessions auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.TokenFromRequest(r)
			if !ok {
				deny(w, r)
				return
			}

			userID, err := sessions.Get(r.Context(), token)
			if err != nil || userID == "" {
				deny(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request) {
	if wantsHTML(r) {
		web.SetFlash(w, "You must be signed in.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
