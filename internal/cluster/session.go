package cluster

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/quorumdeck/quorumdeck/internal/platform/errors"
)

// Session is an authenticated connection to a single cluster node. All
// calls attach the session's application metadata and use the cluster's
// JSON codec.
type Session struct {
	addr     string
	appID    string
	conn     *grpc.ClientConn
	callMeta metadata.MD
}

// Addr returns the node endpoint this session is bound to.
func (s *Session) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Invoke submits a query to the node and returns its textual result.
func (s *Session) Invoke(ctx context.Context, query string) (string, error) {
	if s == nil || s.conn == nil {
		return "", errors.New(errors.CodeNodeUnreachable, "session is not connected")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New(errors.CodeInvalidArgument, "query is required")
	}

	req := &InvokeRequest{AppID: s.appID, Query: query}
	resp := new(InvokeResponse)
	if err := s.call(ctx, invokeMethod, req, resp); err != nil {
		return "", fmt.Errorf("invoke on %s: %w", s.addr, errors.FromGRPC(err))
	}
	return resp.Result, nil
}

// Status fetches the node's current sync state.
func (s *Session) Status(ctx context.Context) (*NodeStatus, error) {
	if s == nil || s.conn == nil {
		return nil, errors.New(errors.CodeNodeUnreachable, "session is not connected")
	}

	req := &StatusRequest{AppID: s.appID}
	resp := new(NodeStatus)
	if err := s.call(ctx, statusMethod, req, resp); err != nil {
		return nil, fmt.Errorf("status on %s: %w", s.addr, errors.FromGRPC(err))
	}
	return resp, nil
}

func (s *Session) call(ctx context.Context, method string, req, resp any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = metadata.NewOutgoingContext(ctx, s.callMeta)
	return s.conn.Invoke(ctx, method, req, resp, grpc.CallContentSubtype(CodecName))
}

// Close releases the underlying connection.
func (s *Session) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// callMetadata builds the outgoing metadata for a session. The private key
// is forwarded opaquely; nodes perform all signing.
func callMetadata(appID, signerAddress, privateKey string) metadata.MD {
	md := metadata.Pairs(
		metadataAppID, appID,
		metadataSignerAddress, signerAddress,
	)
	if privateKey != "" {
		md.Set(metadataPrivateKey, privateKey)
	}
	return md
}
