package middleware

import (
	"net/http"

	"github.com/jmamani/cooperativa-backend/internal/requestctx"
)

// RequestScope seeds every request with its network metadata. Requests that
// never pass Auth keep an anonymous scope, so system-attributed audit records
// still carry a usable IP and user agent.
func RequestScope() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestctx.WithScope(r.Context(), requestctx.FromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
