// Package http provides the gin based HTTP server.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	options "github.com/kart-io/docqa/pkg/options/server/http"
	apierrors "github.com/kart-io/docqa/pkg/utils/errors"
	"github.com/kart-io/docqa/pkg/utils/response"
)

// Server is the HTTP server implementation.
type Server struct {
	opts   *options.Options
	engine *gin.Engine
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new HTTP server. middlewares are applied to every route
// registered afterwards, in the given order.
func NewServer(opts *options.Options, middlewares ...gin.HandlerFunc) *Server {
	if opts == nil {
		opts = options.NewOptions()
	}

	// 设置 Gin 模式
	gin.SetMode(opts.Mode)

	// 创建 Gin 引擎（不使用默认中间件）
	engine := gin.New()
	engine.Use(middlewares...)

	// Set default 404 handler with JSON response
	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, apierrors.ErrRouteNotFound)
	})

	return &Server{
		opts:   opts,
		engine: engine,
	}
}

// Name returns the server name.
func (s *Server) Name() string {
	return "http[gin]"
}

// Engine returns the underlying gin.Engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr 返回实际监听地址，未启动时返回配置的地址。
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Start starts the HTTP server. It returns once the listener is bound.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.server = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}
	srv := s.server
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("HTTP server exited", "addr", ln.Addr().String(), "error", err.Error())
		}
	}()

	logger.Infow("HTTP server listening", "addr", ln.Addr().String())
	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
