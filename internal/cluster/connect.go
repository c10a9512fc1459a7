package cluster

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quorumdeck/quorumdeck/internal/platform/errors"
	platformgrpc "github.com/quorumdeck/quorumdeck/internal/platform/grpc"
)

const defaultDialTimeout = 5 * time.Second

// Config describes a cluster connection request.
type Config struct {
	// Endpoints are the node addresses to dial, one session per endpoint.
	Endpoints []string
	// AppID selects the application namespace on the cluster.
	AppID string
	// SignerAddress identifies the account queries are attributed to.
	SignerAddress string
	// PrivateKey is forwarded to nodes for transaction signing. Optional
	// for read-only consoles.
	PrivateKey string
	// DialTimeout bounds each endpoint dial, defaulting to 5s.
	DialTimeout time.Duration

	// Dialer overrides the gRPC dialer, used by tests.
	Dialer platformgrpc.Dialer
	// Logf receives dial progress messages when set.
	Logf func(string, ...any)
}

func (c *Config) validate() error {
	if len(c.Endpoints) == 0 {
		return errors.New(errors.CodeInvalidArgument, "at least one endpoint is required")
	}
	for _, endpoint := range c.Endpoints {
		if strings.TrimSpace(endpoint) == "" {
			return errors.New(errors.CodeInvalidArgument, "endpoint address is empty")
		}
	}
	if strings.TrimSpace(c.AppID) == "" {
		return errors.New(errors.CodeInvalidArgument, "app id is required")
	}
	if strings.TrimSpace(c.SignerAddress) == "" {
		return errors.New(errors.CodeInvalidArgument, "signer address is required")
	}
	return nil
}

// SessionSet holds one session per cluster node, in endpoint order.
type SessionSet struct {
	sessions []*Session
}

// Sessions returns the sessions in endpoint order.
func (s *SessionSet) Sessions() []*Session {
	if s == nil {
		return nil
	}
	return s.sessions
}

// Size returns the number of node sessions.
func (s *SessionSet) Size() int {
	if s == nil {
		return 0
	}
	return len(s.sessions)
}

// Close releases every session, returning the first error encountered.
func (s *SessionSet) Close() error {
	if s == nil {
		return nil
	}
	var firstErr error
	for _, session := range s.sessions {
		if err := session.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Connect dials every endpoint in cfg and returns a session set. Connection
// is all-or-nothing: if any node fails to dial or pass its health check,
// sessions established so far are closed and the error is returned.
func Connect(ctx context.Context, cfg Config) (*SessionSet, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	appID := strings.TrimSpace(cfg.AppID)
	signer := strings.TrimSpace(cfg.SignerAddress)
	meta := callMetadata(appID, signer, strings.TrimSpace(cfg.PrivateKey))

	set := &SessionSet{}
	for _, endpoint := range cfg.Endpoints {
		addr := strings.TrimSpace(endpoint)
		conn, err := platformgrpc.DialWithHealth(ctx, cfg.Dialer, addr, dialTimeout, cfg.Logf, platformgrpc.DefaultClientDialOptions()...)
		if err != nil {
			_ = set.Close()
			return nil, errors.WrapWithMetadata(errors.CodeConnectFailed,
				fmt.Sprintf("connect to node %s", addr),
				map[string]string{"node": addr}, err)
		}
		set.sessions = append(set.sessions, &Session{
			addr:     addr,
			appID:    appID,
			conn:     conn,
			callMeta: meta,
		})
	}
	return set, nil
}
