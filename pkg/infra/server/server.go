// Package server 统一管理 HTTP 与 gRPC 服务的启动和优雅关闭。
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Server 由 Manager 管理的服务。Start 在开始监听后返回，Stop 优雅关闭。
type Server interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// DefaultShutdownTimeout 默认的优雅关闭等待时间。
const DefaultShutdownTimeout = 30 * time.Second

// Option configures a Manager.
type Option func(*Manager)

// WithShutdownTimeout sets the graceful shutdown timeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.shutdownTimeout = d
		}
	}
}

// WithServers adds servers to the manager.
func WithServers(servers ...Server) Option {
	return func(m *Manager) {
		m.servers = append(m.servers, servers...)
	}
}

// Manager manages multiple servers with unified lifecycle.
// Servers start in the order they were added and stop in reverse order.
type Manager struct {
	shutdownTimeout time.Duration
	servers         []Server

	mu      sync.Mutex
	started []Server
}

// NewManager creates a new server manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{shutdownTimeout: DefaultShutdownTimeout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddServer adds a server to the manager.
func (m *Manager) AddServer(server Server) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers = append(m.servers, server)
}

// Start starts all servers. If one fails, the servers already started are stopped.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.started) > 0 {
		return fmt.Errorf("server manager already started")
	}
	if len(m.servers) == 0 {
		return fmt.Errorf("no servers configured")
	}

	for _, s := range m.servers {
		if err := s.Start(ctx); err != nil {
			_ = m.stopLocked(ctx)
			return fmt.Errorf("failed to start server %s: %w", s.Name(), err)
		}
		m.started = append(m.started, s)
		logger.Infow("Server started", "name", s.Name())
	}
	return nil
}

// Stop stops all started servers gracefully.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx)
}

func (m *Manager) stopLocked(ctx context.Context) error {
	var errs []error
	for i := len(m.started) - 1; i >= 0; i-- {
		s := m.started[i]
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server %s: %w", s.Name(), err))
			continue
		}
		logger.Infow("Server stopped", "name", s.Name())
	}
	m.started = nil
	return utilerrors.NewAggregate(errs)
}

// Run starts all servers, blocks until ctx is done, then shuts down
// within the configured timeout.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout)
	defer cancel()
	return m.Stop(shutdownCtx)
}
