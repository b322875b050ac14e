package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"agri-auth/pkg/apierror"
)

// Recovery turns a panic into the generic 500 body; the stack only goes to the log.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				slog.Error("panic recovered", "error", fmt.Sprintf("%v", recovered), "path", r.URL.Path, "stack", string(debug.Stack()))
				writeBody(w, http.StatusInternalServerError, apierror.CodeInternal, "Unexpected server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
