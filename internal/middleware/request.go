package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestID makes sure every request carries an X-Request-ID, echoing it
// back so error envelopes and logs can be correlated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

const (
	QuizKey        contextKey = "quiz_key"
	QuizCookieName            = "quiz_sid"
)

// QuizSession issues the cookie that keys a browser's quiz session in the
// session store. The cookie holds an opaque id only.
func QuizSession(ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var key string
			if c, err := r.Cookie(QuizCookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					key = c.Value
				}
			}
			if key == "" {
				key = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     QuizCookieName,
					Value:    key,
					Path:     "/quiz",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), QuizKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetQuizKey returns the session key set by QuizSession.
func GetQuizKey(ctx context.Context) string {
	key, _ := ctx.Value(QuizKey).(string)
	return key
}
