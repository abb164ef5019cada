package interceptors

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingUnary returns a unary server interceptor that logs failed RPCs with their duration and
// client IP. Methods in skipMethods are never logged.
func LoggingUnary(skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		code := status.Code(err)
		if code == codes.Canceled {
			return resp, err
		}
		log.Printf("grpc: %s %s in %dms from %s: %v", info.FullMethod, code, time.Since(start).Milliseconds(), ClientIP(ctx), err)
		return resp, err
	}
}
