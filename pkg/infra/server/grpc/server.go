// Package grpc provides the gRPC server that exposes the standard health service.
package grpc

import (
	"context"
	"net"
	"sync"

	"github.com/kart-io/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcopts "github.com/kart-io/docqa/pkg/options/server/grpc"
)

// Server is the gRPC server implementation.
type Server struct {
	opts   *grpcopts.Options
	server *grpc.Server
	health *health.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new gRPC server with the health service registered.
func NewServer(opts *grpcopts.Options) *Server {
	if opts == nil {
		opts = grpcopts.NewOptions()
	}

	srv := grpc.NewServer(grpc.MaxRecvMsgSize(opts.MaxRecvMsgSize))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	// Enable reflection if configured
	if opts.EnableReflection {
		reflection.Register(srv)
	}

	return &Server{
		opts:   opts,
		server: srv,
		health: hs,
	}
}

// Name returns the server name.
func (s *Server) Name() string {
	return "grpc"
}

// Server returns the underlying grpc.Server.
func (s *Server) Server() *grpc.Server {
	return s.server
}

// SetServing 更新 service 的健康状态，service 为空表示整个服务。
func (s *Server) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

// Addr 返回实际监听地址。
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Start starts the gRPC server. It returns once the listener is bound.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(ln); err != nil {
			logger.Errorw("gRPC server exited", "addr", ln.Addr().String(), "error", err.Error())
		}
	}()

	logger.Infow("gRPC server listening", "addr", ln.Addr().String())
	return nil
}

// Stop stops the gRPC server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.health.Shutdown()

	// Graceful stop with context
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-ctx.Done():
		s.server.Stop() // Force stop if context is cancelled
		return ctx.Err()
	case <-done:
		return nil
	}
}
