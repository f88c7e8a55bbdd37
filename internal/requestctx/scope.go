package requestctx

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	// FallbackIP is reported when no client address can be determined.
	FallbackIP = "127.0.0.1"
	// FallbackActorLabel names events that no authenticated user produced.
	FallbackActorLabel = "Sistema"
	// FallbackUserAgent marks records emitted outside an HTTP request.
	FallbackUserAgent = "Sistema"
)

type scopeCtxKey struct{}

// Scope carries the per-request actor and network metadata consumed by the
// audit pipeline. A zero Scope is usable; readers receive the fallbacks.
type Scope struct {
	ActorID      *uuid.UUID
	ActorLabel   string
	IP           string
	UserAgent    string
	SessionToken string
}

// WithScope returns a context carrying the provided scope.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeCtxKey{}, scope)
}

// FromContext extracts the request scope. Missing or empty fields resolve to
// the documented fallbacks so callers never observe blank actor or IP values.
func FromContext(ctx context.Context) Scope {
	scope, _ := ctx.Value(scopeCtxKey{}).(Scope)
	if scope.IP == "" {
		scope.IP = FallbackIP
	}
	if scope.ActorLabel == "" {
		scope.ActorLabel = FallbackActorLabel
	}
	if scope.UserAgent == "" {
		scope.UserAgent = FallbackUserAgent
	}
	return scope
}

// FromRequest builds a scope from the incoming HTTP request. Actor fields are
// filled in later by the auth middleware once the token is verified.
func FromRequest(r *http.Request) Scope {
	return Scope{
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// ClientIP resolves the originating address, preferring the first entry of
// X-Forwarded-For when a proxy injected it.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return FallbackIP
	}
	return host
}
