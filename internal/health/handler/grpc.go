package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the service name accepted by Check in addition to "" (the whole server).
const ServiceName = "auth.v1.AuthService"

// Readiness reports whether the service can take traffic. Satisfied by *health.Checker.
type Readiness interface {
	Check(ctx context.Context) error
}

// Server implements grpc.health.v1.Health for readiness/liveness probes.
type Server struct {
	healthpb.UnimplementedHealthServer
	readiness Readiness
}

// NewServer returns a new Health gRPC server. readiness may be nil, in which case Check always reports SERVING.
func NewServer(readiness Readiness) *Server {
	return &Server{readiness: readiness}
}

// Check returns SERVING when every readiness probe passes and NOT_SERVING otherwise.
// Probe failures are reported through the status, never as a gRPC error.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}
	if s.readiness != nil {
		if err := s.readiness.Check(ctx); err != nil {
			return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
		}
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
