package middleware

import (
	"net/http"
	"net/url"

	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

var localHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
}

// AllowedOrigin reports whether origin is an http(s) URL on a loopback host.
func AllowedOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	_, ok := localHosts[u.Hostname()]
	return ok
}

// Origin rejects browser requests from anything but a local origin with 403.
// Requests without an Origin header are not from a browser and pass.
func Origin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !AllowedOrigin(origin) {
			logging.New("http").Warnf("Rejected request from origin %q", origin)
			WriteError(w, apperrors.NewAppError(apperrors.ErrCodeOrigin, "origin not allowed", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}
