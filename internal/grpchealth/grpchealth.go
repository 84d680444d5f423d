// Package grpchealth serves the standard grpc.health.v1 service with a status
// that tracks database reachability.
package grpchealth

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"clinic-booking/internal/lib/sl"
)

// Service is the name reported alongside the overall ("") status.
const Service = "clinic.Booking"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	log    *slog.Logger
	db     Pinger
	health *health.Server
	srv    *grpc.Server
}

func New(log *slog.Logger, db Pinger) *Server {
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &Server{
		log:    log.With(slog.String("component", "grpchealth")),
		db:     db,
		health: hs,
		srv:    srv,
	}
}

// Check pings the database once and publishes the result.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("database ping failed", sl.Err(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(Service, status)
	return status
}

// Serve listens on addr and refreshes the status every interval until ctx
// is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, addr string, interval time.Duration) error {
	const op = "grpchealth.Serve"

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.Check(ctx)

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.srv.GracefulStop()
				return
			case <-t.C:
				s.Check(ctx)
			}
		}
	}()

	s.log.Info("grpc health server starting", slog.String("address", lis.Addr().String()))
	if err := s.srv.Serve(lis); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
