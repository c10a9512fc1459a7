// Package mcp exposes the cluster console to model-driven clients over the
// Model Context Protocol: a query_submit tool with the same round-robin
// dispatch as the web console, and a cluster_status tool for the settle-all
// status fan-out.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quorumdeck/quorumdeck/internal/cluster"
	"github.com/quorumdeck/quorumdeck/internal/console"
)

const (
	serverName    = "quorumdeck"
	serverVersion = "0.1.0"
)

// Config defines the inputs for the MCP server.
type Config struct {
	Endpoints     []string
	AppID         string
	SignerAddress string
	PrivateKey    string
	DialTimeout   time.Duration
}

// Server hosts the MCP stdio server over one cluster connection.
type Server struct {
	dispatcher *console.Dispatcher
	closeFn    func() error
	mcpServer  *mcp.Server
}

// NewServer dials the cluster and builds a configured MCP server.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	set, err := cluster.Connect(ctx, cluster.Config{
		Endpoints:     cfg.Endpoints,
		AppID:         cfg.AppID,
		SignerAddress: cfg.SignerAddress,
		PrivateKey:    cfg.PrivateKey,
		DialTimeout:   cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect cluster: %w", err)
	}

	queriers := make([]console.Querier, 0, set.Size())
	for _, session := range set.Sessions() {
		queriers = append(queriers, session)
	}
	server, err := newServerWithSessions(queriers, set.Close)
	if err != nil {
		_ = set.Close()
		return nil, err
	}
	return server, nil
}

// newServerWithSessions builds the server over pre-established sessions.
// Tests use it to inject fakes.
func newServerWithSessions(sessions []console.Querier, closeFn func() error) (*Server, error) {
	dispatcher, err := console.NewDispatcher(sessions)
	if err != nil {
		return nil, err
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(mcpServer, QuerySubmitTool(), QuerySubmitHandler(dispatcher))
	mcp.AddTool(mcpServer, ClusterStatusTool(), ClusterStatusHandler(dispatcher))

	return &Server{
		dispatcher: dispatcher,
		closeFn:    closeFn,
		mcpServer:  mcpServer,
	}, nil
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport runs the MCP server and releases the cluster
// connection on exit so stdio and test transports share one cleanup path.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close cluster connection: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close cluster connection: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// Close releases the cluster connection held by the server.
func (s *Server) Close() error {
	if s == nil || s.closeFn == nil {
		return nil
	}
	closeFn := s.closeFn
	s.closeFn = nil
	return closeFn()
}
