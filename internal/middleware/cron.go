package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// CronAuth guards the scheduled batch endpoints. External schedulers
// authenticate with `Authorization: Bearer <CRON_SECRET>`; the comparison
// is constant-time.
func CronAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid cron secret", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(secret)) != 1 {
				http.Error(w, "invalid cron secret", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
