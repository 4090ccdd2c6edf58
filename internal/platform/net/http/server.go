package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	mw "github.com/go-chi/chi/v5/middleware"

	"timejar/internal/platform/config"
	"timejar/internal/platform/logger"
)

const (
	defaultAddr     = ":9102"
	shutdownTimeout = 5 * time.Second
)

// Server serves the ops endpoints next to a batch run
type Server struct {
	addr string
	mux  *chi.Mux
	srv  *stdhttp.Server
}

// NewServer builds the ops server for METRICS_ADDR (default :9102)
func NewServer(cfg config.Conf) *Server {
	addr := cfg.MayString("METRICS_ADDR", defaultAddr)
	m := chi.NewRouter()
	m.Use(mw.RequestID, Recover, AccessLog)
	return &Server{
		addr: addr,
		mux:  m,
		srv: &stdhttp.Server{
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.MayDuration("METRICS_WRITE_TIMEOUT", time.Minute),
		},
	}
}

// Router exposes the mux for mounting routes
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr is the configured listen address
func (s *Server) Addr() string { return s.addr }

// Run listens on Addr and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then drains in-flight requests
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.Named("http")
	log.Info().Str("addr", ln.Addr().String()).Msg("http listening")

	stop := context.AfterFunc(ctx, func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	})
	defer stop()

	err := s.srv.Serve(ln)
	if errors.Is(err, stdhttp.ErrServerClosed) {
		return nil
	}
	return err
}
