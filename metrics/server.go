package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the default prometheus registry for scraping while a run
// is in progress.
type Server struct {
	srv *http.Server
}

// StartServer begins listening on addr:port and serves /metrics in the
// background. It returns once the listener is bound, so scrapes cannot
// race startup.
func StartServer(logger log.Logger, addr string, port int) (*Server, error) {
	hostPort := net.JoinHostPort(addr, fmt.Sprintf("%d", port))
	listener, err := net.Listen("tcp", hostPort)
	if err != nil {
		return nil, fmt.Errorf("failed to bind metrics listener on %s: %w", hostPort, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Metrics server started", "addr", hostPort)
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", "error", err)
		}
	}()

	return &Server{srv: srv}, nil
}

// Shutdown stops the server, waiting briefly for in-flight scrapes.
func (s *Server) Shutdown() {
	if s == nil || s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}
