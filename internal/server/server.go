// Package server hosts environments behind a websocket endpoint. Every
// connection owns one environment; requests on a connection are served in
// order, so an environment is never touched by two goroutines.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/pushreach/internal/config"
	"github.com/zeusync/pushreach/internal/core/observability/log"
	"github.com/zeusync/pushreach/internal/core/protocol"
	"github.com/zeusync/pushreach/internal/core/storage"
	"github.com/zeusync/pushreach/internal/env"
	"github.com/zeusync/pushreach/pkg/generic"
)

// EnvFactory builds the environment of a new session.
type EnvFactory func() (*env.Env, error)

// Server is the environment harness endpoint.
type Server struct {
	config   config.ServerConfig
	factory  EnvFactory
	codec    protocol.Codec
	upgrader websocket.Upgrader
	logger   log.Log

	httpServer *http.Server
	listener   net.Listener

	sessions     sync.Map // map[string]*Session
	sessionCount atomic.Int64

	// mu orders session admission against Stop's drain.
	mu       sync.Mutex
	draining bool

	running atomic.Bool
	closed  atomic.Bool

	workerGroup sync.WaitGroup
}

// Session is one connected harness.
type Session struct {
	ID          string
	Env         *env.Env
	Conn        *websocket.Conn
	Checkpoints storage.Storage[env.EnvState]
	ConnectedAt time.Time
	LastSeen    atomic.Int64
	Requests    atomic.Uint64
}

// Stats contains server statistics.
type Stats struct {
	Sessions int64
	Running  bool
}

func NewServer(cfg config.ServerConfig, factory EnvFactory, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		config:  cfg,
		factory: factory,
		codec:   protocol.JSONCodec{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			WriteBufferPool: generic.NewPool[any](nil),
		},
		logger: logger.With(log.String("component", "server")),
	}
	s.logger.Info("Server created",
		log.String("listen_addr", cfg.Addr),
		log.String("path", cfg.Path),
		log.Int("max_sessions", cfg.MaxSessions))
	return s
}

// Handler serves the websocket endpoint. It can be mounted without Start.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	path := s.config.Path
	if path == "" {
		path = "/"
	}
	mux.HandleFunc(path, s.handleWebSocket)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	s.mu.Lock()
	s.draining = false
	s.mu.Unlock()

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %v", ErrListenerFailed, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.workerGroup.Add(1)
	go func() {
		defer s.workerGroup.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Serve failed", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr is the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the listener down and disconnects every session.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	s.logger.Info("Stopping server")

	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	err := s.httpServer.Shutdown(ctx)

	// Hijacked websocket connections are not tracked by Shutdown.
	s.sessions.Range(func(_, value any) bool {
		_ = value.(*Session).Conn.Close()
		return true
	})
	s.workerGroup.Wait()

	s.logger.Info("Server stopped")
	return err
}

// Close stops the server if needed and prevents further starts.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.running.Load() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Stop(ctx)
	}
	return nil
}

func (s *Server) GetStats() Stats {
	return Stats{
		Sessions: s.sessionCount.Load(),
		Running:  s.running.Load(),
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if limit := s.config.MaxSessions; limit > 0 && int(s.sessionCount.Load()) >= limit {
		s.logger.Warn("Maximum sessions reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxSessionsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	if !s.admit() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	e, err := s.factory()
	if err != nil {
		s.workerGroup.Done()
		s.logger.Error("Failed to build environment", log.Error(err))
		http.Error(w, "environment unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.workerGroup.Done()
		s.logger.Warn("Upgrade failed", log.Error(err))
		return
	}

	session := &Session{
		ID:          uuid.NewString(),
		Env:         e,
		Conn:        conn,
		Checkpoints: storage.NewMemory[env.EnvState](s.config.MaxCheckpoints),
		ConnectedAt: time.Now(),
	}
	session.LastSeen.Store(time.Now().Unix())

	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		_ = conn.Close()
		s.workerGroup.Done()
		return
	}
	s.sessions.Store(session.ID, session)
	s.sessionCount.Add(1)
	s.mu.Unlock()

	s.logger.Info("Session connected",
		log.String("session_id", session.ID),
		log.String("env_id", e.ID()),
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int64("total_sessions", s.sessionCount.Load()))

	s.handleSession(r.Context(), session)
}

// admit reserves a worker slot unless Stop is draining sessions.
func (s *Server) admit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return false
	}
	s.workerGroup.Add(1)
	return true
}

func (s *Server) handleSession(ctx context.Context, session *Session) {
	defer func() {
		s.sessions.Delete(session.ID)
		s.sessionCount.Add(-1)
		_ = session.Conn.Close()
		s.workerGroup.Done()

		s.logger.Info("Session disconnected",
			log.String("session_id", session.ID),
			log.Uint64("requests", session.Requests.Load()),
			log.Int64("total_sessions", s.sessionCount.Load()))
	}()

	logger := s.logger.With(log.String("session_id", session.ID))
	if s.config.MaxMessageSize > 0 {
		session.Conn.SetReadLimit(s.config.MaxMessageSize)
	}

	for {
		if s.config.IdleTimeout > 0 {
			_ = session.Conn.SetReadDeadline(time.Now().Add(s.config.IdleTimeout))
		}
		kind, data, err := session.Conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Read failed", log.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		session.LastSeen.Store(time.Now().Unix())
		session.Requests.Add(1)

		resp := s.handle(ctx, session, data, logger)
		out, err := s.codec.EncodeResponse(resp)
		if err != nil {
			logger.Error("Failed to encode response", log.Error(err))
			return
		}
		if err := session.Conn.WriteMessage(websocket.TextMessage, out); err != nil {
			logger.Debug("Write failed", log.Error(err))
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, session *Session, data []byte, logger log.Log) protocol.Response {
	req, err := s.codec.DecodeRequest(data)
	if err != nil {
		logger.Warn("Invalid request", log.Error(err))
		return protocol.Failure(req.ID, err)
	}
	logger.Debug("Handling request",
		log.Uint64("request_id", req.ID),
		log.String("method", req.Method))

	result, err := dispatch(ctx, session, req)
	if err != nil {
		logger.Warn("Request failed",
			log.String("method", req.Method),
			log.Error(err))
		return protocol.Failure(req.ID, err)
	}
	return protocol.Result(req.ID, result)
}
