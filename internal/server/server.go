// Package server exposes the scene controller over HTTP and WebSocket.
package server

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/zeusync/arview/internal/controller"
	"github.com/zeusync/arview/internal/core/capture"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Server serves the web client: a WebSocket for gestures and scene updates,
// and plain HTTP for the catalog, photos and saved scenes.
type Server struct {
	ctrl     *controller.Controller
	repo     *storage.Repository
	composer *capture.Composer
	hub      *Hub
	upgrader websocket.Upgrader

	httpServer *http.Server
	addr       atomic.Value // net.Addr

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	config Config
	logger log.Log
	now    func() time.Time
}

// Config holds server configuration
type Config struct {
	ListenAddr string `mapstructure:"listenAddr" yaml:"listenAddr"`

	ReadTimeout     time.Duration `mapstructure:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout"`

	// MaxUploadBytes caps a capture request.
	MaxUploadBytes int64 `mapstructure:"maxUploadBytes" yaml:"maxUploadBytes"`
	// MaxMessageSize caps one inbound WebSocket message.
	MaxMessageSize int64 `mapstructure:"maxMessageSize" yaml:"maxMessageSize"`
	SendBufferSize int   `mapstructure:"sendBufferSize" yaml:"sendBufferSize"`

	// AllowedOrigins for WebSocket upgrades. Empty means same origin only,
	// "*" allows any.
	AllowedOrigins []string `mapstructure:"allowedOrigins" yaml:"allowedOrigins"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:      "127.0.0.1:8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxUploadBytes:  32 << 20, // 32MB
		MaxMessageSize:  64 << 10, // 64KB
		SendBufferSize:  64,
	}
}

func (c Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return errors.Wrap(ErrInvalidConfig, "empty listen address")
	case c.ShutdownTimeout <= 0:
		return errors.Wrap(ErrInvalidConfig, "shutdown timeout must be positive")
	case c.MaxUploadBytes <= 0:
		return errors.Wrap(ErrInvalidConfig, "max upload size must be positive")
	case c.MaxMessageSize <= 0:
		return errors.Wrap(ErrInvalidConfig, "max message size must be positive")
	case c.SendBufferSize <= 0:
		return errors.Wrap(ErrInvalidConfig, "send buffer size must be positive")
	}
	return nil
}

// NewServer subscribes to the controller's bus; the controller itself is
// started by Run.
func NewServer(cfg Config, ctrl *controller.Controller, repo *storage.Repository, composer *capture.Composer, logger log.Log) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("component", "server"))

	hub, err := NewHub(ctrl.Bus(), ctrl.Topic(), cfg.SendBufferSize, logger)
	if err != nil {
		return nil, errors.Wrap(err, "subscribe to scene events")
	}

	s := &Server{
		ctrl:     ctrl,
		repo:     repo,
		composer: composer,
		hub:      hub,
		upgrader: newUpgrader(cfg.AllowedOrigins),
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	s.logger.Info("Server created",
		log.String("listen_addr", cfg.ListenAddr),
		log.Int("models", ctrl.Catalog().Len()),
		log.Bool("storage", repo != nil),
	)
	return s, nil
}

// Run serves HTTP and drives the controller until ctx is done, then shuts
// both down. It can be called once.
func (s *Server) Run(ctx context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}
	defer func() {
		atomic.StoreInt32(&s.running, 0)
		atomic.StoreInt32(&s.closed, 1)
	}()

	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.config.ListenAddr)
	}
	s.addr.Store(ln.Addr())
	s.logger.Info("Server started", log.String("addr", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.ctrl.Run(gctx)
	})
	g.Go(func() error {
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve http")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		s.hub.Close()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown http")
		}
		return nil
	})

	err = g.Wait()
	if err != nil {
		s.logger.Error("Server stopped", log.Error(err))
	} else {
		s.logger.Info("Server stopped")
	}
	return err
}

// Addr is the bound listen address once Run has started, nil before.
func (s *Server) Addr() net.Addr {
	addr, _ := s.addr.Load().(net.Addr)
	return addr
}

func (s *Server) IsRunning() bool {
	return atomic.LoadInt32(&s.running) == 1
}

// Clients is the number of connected WebSocket clients.
func (s *Server) Clients() int {
	return s.hub.Len()
}
