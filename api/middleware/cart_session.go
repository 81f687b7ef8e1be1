package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CartSessionCookie names the cookie carrying the anonymous cart session id.
const CartSessionCookie = "ps_session"

// CartSession reads the anonymous cart session cookie, issuing a fresh one
// when absent or unparseable, and seeds the id into the request context. The
// id is an opaque uuid; the cart itself lives in Redis under it.
func CartSession(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(CartSessionCookie); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					sessionID = cookie.Value
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CartSessionCookie,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithSessionID(r.Context(), sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
