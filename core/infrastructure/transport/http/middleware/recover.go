package middleware

import (
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

// Recover turns a panic into a 500, unless the handler already started the
// response. A started response cannot be amended, so it is left as is.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log := logging.New("http")
			log.Errorf("Panic serving %s %s: %v", r.Method, r.URL.Path, rec)
			log.Debugf("%s", debug.Stack())

			if ww.Status() == 0 {
				WriteError(ww, apperrors.NewAppError(apperrors.ErrCodeInternalError, "internal server error", nil))
			}
		}()
		next.ServeHTTP(ww, r)
	})
}
