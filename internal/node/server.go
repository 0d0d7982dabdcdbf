package node

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/manesajian/superq/internal/wire"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server accepts node-protocol connections on plain TCP and, optionally,
// TLS listeners and dispatches each request through a Handler.
type Server struct {
	cfg     Config
	handler *Handler
	log     *zap.Logger

	mu        sync.Mutex
	listeners []net.Listener
	connWG    sync.WaitGroup
}

// NewServer builds a Server. Call ListenAndServe to start accepting.
func NewServer(cfg Config, handler *Handler, log *zap.Logger) *Server {
	return &Server{cfg: cfg, handler: handler, log: log.Named("node")}
}

// ListenAndServe opens the configured listeners and blocks serving
// connections until Shutdown is called, returning the first fatal accept
// error across either listener's goroutine.
func (s *Server) ListenAndServe() error {
	var eg errgroup.Group

	if s.cfg.ListenAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.ListenAddr)
		if err != nil {
			return err
		}
		s.addListener(ln)
		s.log.Info("listening", zap.String("addr", s.cfg.ListenAddr), zap.Bool("tls", false))
		eg.Go(func() error { return s.serve(ln) })
	}

	if s.cfg.TLSAddr != "" {
		cert, err := tls.LoadX509KeyPair(s.cfg.CertFile, s.cfg.KeyFile)
		if err != nil {
			return err
		}
		tlsConf := &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
		ln, err := tls.Listen("tcp", s.cfg.TLSAddr, tlsConf)
		if err != nil {
			return err
		}
		s.addListener(ln)
		s.log.Info("listening", zap.String("addr", s.cfg.TLSAddr), zap.Bool("tls", true))
		eg.Go(func() error { return s.serve(ln) })
	}

	return eg.Wait()
}

func (s *Server) addListener(ln net.Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, ln)
	s.mu.Unlock()
}

// serve runs one listener's accept loop, returning nil once the listener
// is closed during Shutdown or a non-nil error on any other accept failure.
func (s *Server) serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept failed", zap.Error(err))
			return err
		}
		s.connWG.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.connWG.Done()
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	s.log.Debug("connection opened", zap.String("remote", remote))

	for {
		body, err := wire.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("connection read failed", zap.String("remote", remote), zap.Error(err))
			}
			return
		}

		req, err := wire.DecodeRequest(body)
		if err != nil {
			s.log.Warn("malformed request", zap.String("remote", remote), zap.Error(err))
			return
		}

		resp := s.handler.Dispatch(req)
		if err := wire.WriteFrame(conn, resp.Encode()); err != nil {
			s.log.Debug("connection write failed", zap.String("remote", remote), zap.Error(err))
			return
		}
	}
}

// Shutdown closes every open listener, then waits up to cfg.ShutdownGrace
// for in-flight connections to finish on their own before returning.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	var firstErr error
	for _, ln := range s.listeners {
		if err := ln.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.connWG.Wait()
		close(done)
	}()

	grace := s.cfg.ShutdownGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	select {
	case <-done:
	case <-time.After(grace):
		s.log.Warn("shutdown grace period elapsed with connections still open")
	}
	return firstErr
}
