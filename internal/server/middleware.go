package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kindredapp/kindred-backend/internal/metrics"
)

// IdentityHeader carries the authenticated caller's id. The upstream auth
// gateway validates credentials and forwards only this header; the engine
// itself never sees tokens or passwords.
const IdentityHeader = "X-User-ID"

type contextKey struct{ name string }

var userIDKey = &contextKey{"userID"}

// Identity extracts the caller id from IdentityHeader and stores it on the
// request context. Requests without an identity are rejected — every engine
// operation is per-user.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(IdentityHeader)
		if userID == "" {
			RespondError(w, http.StatusUnauthorized, "missing "+IdentityHeader+" header")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the authenticated caller id placed by Identity.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// statusRecorder captures the response status for the request histogram.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument records per-route request latency.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(rec.status), time.Since(start))
	})
}
