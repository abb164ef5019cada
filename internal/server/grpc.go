package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"authx-console/internal/server/interceptors"
)

// quietMethods are probed constantly and never logged.
var quietMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName: true,
	healthpb.Health_Watch_FullMethodName: true,
}

// NewGRPCServer returns a gRPC server with OTel stats and the health service registered.
func NewGRPCServer(hs *health.Server) *grpc.Server {
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors.LoggingUnary(quietMethods)),
	)
	RegisterServices(s, hs)
	return s
}

// RegisterServices registers the console's gRPC services on s.
//
//	grpc.health.v1.Health → hs (kept current by health.Checker.Watch)
func RegisterServices(s grpc.ServiceRegistrar, hs *health.Server) {
	healthpb.RegisterHealthServer(s, hs)
}
