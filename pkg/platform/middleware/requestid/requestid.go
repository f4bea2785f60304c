// Package requestid assigns every request an ID, propagated through the
// context and echoed in the X-Request-ID response header.
package requestid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"campus/pkg/requestcontext"
)

const Header = "X-Request-ID"

const maxInboundLength = 128

// Middleware reuses a caller-supplied X-Request-ID when present and sane,
// otherwise generates a UUID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(Header))
		if id == "" || len(id) > maxInboundLength {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}
