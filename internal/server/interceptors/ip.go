package interceptors

import (
	"context"
	"net"
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

const bearerPrefix = "Bearer "

// OperatorHeader names the dashboard operator on widget requests. It is recorded as the audit actor.
const OperatorHeader = "X-Authx-Operator"

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			if s := firstForwarded(vals[0]); s != "" {
				return s
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return hostOnly(p.Addr.String())
	}
	return "unknown"
}

// RequestIP is ClientIP for an HTTP request: X-Forwarded-For, X-Real-IP, then RemoteAddr.
func RequestIP(r *http.Request) string {
	if s := firstForwarded(r.Header.Get("X-Forwarded-For")); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.Header.Get("X-Real-IP")); s != "" {
		return s
	}
	if r.RemoteAddr != "" {
		return hostOnly(r.RemoteAddr)
	}
	return "unknown"
}

// ExtractBearer returns the token of an "Authorization: Bearer <token>" header, or "".
// The scheme is matched case-insensitively.
func ExtractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// Identify is HTTP middleware that stores the client IP and operator in the request context.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator := strings.TrimSpace(r.Header.Get(OperatorHeader))
		ctx := WithRequest(r.Context(), RequestIP(r), operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func firstForwarded(v string) string {
	s := strings.TrimSpace(v)
	if i := strings.Index(s, ","); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
