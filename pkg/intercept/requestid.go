package intercept

import (
	"net/http"

	"github.com/google/uuid"

	"vaani-labs/drishti/pkg/logging"
)

// requestIDHeader carries the request identifier across hops.
const requestIDHeader = "X-Request-ID"

// RequestID attaches a request identifier to the context and echoes it on
// the response. An inbound identifier is trusted and passed through; absent
// one, a fresh UUID is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := logging.WithRequestID(r.Context(), id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
