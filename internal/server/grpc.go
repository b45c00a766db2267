package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthhandler "auth-service/internal/health/handler"
)

// Deps holds optional dependencies for gRPC handlers.
type Deps struct {
	// Readiness backs grpc.health.v1. If nil, Check always reports SERVING.
	Readiness healthhandler.Readiness
}

// NewGRPCServer returns a gRPC server instrumented with the OpenTelemetry stats handler
// (global tracer and meter providers) with every service registered.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers all gRPC services with the given server.
//
//   - grpc.health.v1.Health → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.Readiness))
}
