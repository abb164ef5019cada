// Package interceptors carries per-request identity (client IP, operator) through HTTP and gRPC calls.
package interceptors

import "context"

type contextKey struct{ name string }

var (
	clientIPKey = contextKey{"client_ip"}
	operatorKey = contextKey{"operator"}
)

// WithRequest returns a context with the client IP and operator set.
// The audit logger reads the IP back through ClientIPFromContext.
func WithRequest(ctx context.Context, clientIP, operator string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	ctx = context.WithValue(ctx, operatorKey, operator)
	return ctx
}

// ClientIPFromContext returns the IP stored by WithRequest, or "" if unset.
func ClientIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

// GetOperator returns the dashboard operator from context and true if set; otherwise "", false.
func GetOperator(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(operatorKey).(string)
	return v, ok && v != ""
}
