// Package grpc exposes the standard gRPC health service so orchestrators
// can probe the chat server next to its websocket endpoint.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "chitchat.Chat"

// Probe reports whether a dependency (the database, for instance) is usable.
type Probe func(ctx context.Context) error

type HealthServer struct {
	address  string
	logger   logging.Logger
	health   *health.Server
	probe    Probe
	interval time.Duration
}

// NewHealthServer builds a server listening on a. A nil probe means the
// service is always serving while the server runs.
func NewHealthServer(a string, l logging.Logger, probe Probe, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		health:   health.NewServer(),
		probe:    probe,
		interval: interval,
	}
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, s.health)

	s.check(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.check(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	return srv.Serve(lis)
}

func (s *HealthServer) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		pctx, cancel := context.WithTimeout(ctx, s.interval)
		err := s.probe(pctx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "health probe failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
