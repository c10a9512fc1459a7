// Package web serves the browser console for a Quorumdeck cluster: a
// connect form, a query console with round-robin dispatch, and a polled
// cluster status panel rendered with HTMX fragments.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/quorumdeck/quorumdeck/internal/cluster"
	"github.com/quorumdeck/quorumdeck/internal/console"
)

// defaultClusterDialTimeout caps the dial wait time for node connections.
const defaultClusterDialTimeout = 5 * time.Second

// Config defines the inputs for the web server.
type Config struct {
	HTTPAddr           string
	SessionKey         string
	PollInterval       time.Duration
	ClusterDialTimeout time.Duration
}

// Server hosts the console HTTP server and the console registry.
type Server struct {
	httpAddr   string
	registry   *console.Registry
	httpServer *http.Server
}

// NewServer builds a configured web server.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ClusterDialTimeout <= 0 {
		config.ClusterDialTimeout = defaultClusterDialTimeout
	}

	registry := console.NewRegistry()
	handler, err := NewHandler(HandlerOptions{
		Registry:     registry,
		SessionKey:   config.SessionKey,
		PollInterval: config.PollInterval,
		DialTimeout:  config.ClusterDialTimeout,
	})
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		httpAddr:   httpAddr,
		registry:   registry,
		httpServer: httpServer,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	serveErr := make(chan error, 1)
	log.Printf("web listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases every live console session.
func (s *Server) Close() {
	if s == nil || s.registry == nil {
		return
	}
	if err := s.registry.Close(); err != nil {
		log.Printf("close console registry: %v", err)
	}
}

// defaultConnector dials the cluster and adapts its sessions to the
// console's Querier interface.
func defaultConnector(ctx context.Context, cfg cluster.Config) ([]console.Querier, func() error, error) {
	set, err := cluster.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	queriers := make([]console.Querier, 0, set.Size())
	for _, session := range set.Sessions() {
		queriers = append(queriers, session)
	}
	return queriers, set.Close, nil
}
