package middleware

import (
	"net/http"

	"github.com/hyperterse/dbmcp/core/infrastructure/auth"
	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
)

// Auth enforces bearer authentication. OPTIONS requests are not checked so
// that preflights and capability probes succeed.
func Auth(validator *auth.Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		log := logging.New("auth")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if err := validator.Check(r); err != nil {
				log.Debugf("Rejected %s %s: %s", r.Method, r.URL.Path, err)
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
